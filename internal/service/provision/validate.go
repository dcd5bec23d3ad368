package provision

import (
	"fmt"
	"slices"

	"github.com/vpsbridge/vpsbridge/internal/provider"
	"github.com/vpsbridge/vpsbridge/pkg/types"
)

// The checks below are pure functions over already-fetched reference data.
// Keeping them free of I/O means the workflow can validate everything before
// the one mutating call, and the tests can exercise them directly.

// findRegion resolves a region id against the fetched region list.
func findRegion(regions []provider.Region, id string) (*provider.Region, *types.FieldError) {
	for i := range regions {
		if regions[i].ID == id {
			if !regions[i].Active() {
				return nil, &types.FieldError{Field: "region", Reason: fmt.Sprintf("region %q is not accepting new instances", id)}
			}
			return &regions[i], nil
		}
	}
	return nil, &types.FieldError{Field: "region", Reason: fmt.Sprintf("unknown region %q", id)}
}

// findProduct checks that a fixed plan is offered and active in the region
// whose products were fetched.
func findProduct(products []provider.Product, productID string) *types.FieldError {
	for i := range products {
		if products[i].ID == productID {
			if !products[i].IsActive {
				return &types.FieldError{Field: "product_id", Reason: fmt.Sprintf("product %q is not currently available", productID)}
			}
			return nil
		}
	}
	return &types.FieldError{Field: "product_id", Reason: fmt.Sprintf("product %q is not offered in the requested region", productID)}
}

// checkCustomSpec validates a custom plan against the bounds the region
// advertises. Bounds the region does not advertise are not enforced locally;
// the provider has the final word on those.
func checkCustomSpec(region *provider.Region, spec *provider.ExtraResource) []types.FieldError {
	var errs []types.FieldError

	if spec.CPU <= 0 {
		errs = append(errs, types.FieldError{Field: "custom.cpu", Reason: "must be a positive integer"})
	}
	if spec.RAMInGB <= 0 {
		errs = append(errs, types.FieldError{Field: "custom.ram_gb", Reason: "must be a positive integer"})
	}
	if spec.DiskInGB <= 0 {
		errs = append(errs, types.FieldError{Field: "custom.disk_gb", Reason: "must be a positive integer"})
	}
	if spec.BandwidthInTB < 0 {
		errs = append(errs, types.FieldError{Field: "custom.bandwidth_tb", Reason: "must not be negative"})
	}
	if len(errs) > 0 || region.Config == nil {
		return errs
	}

	cfg := region.Config
	if cfg.MinCPU > 0 && spec.CPU < cfg.MinCPU {
		errs = append(errs, boundsErr("custom.cpu", spec.CPU, "below the region minimum", cfg.MinCPU))
	}
	if cfg.MaxCPU > 0 && spec.CPU > cfg.MaxCPU {
		errs = append(errs, boundsErr("custom.cpu", spec.CPU, "above the region maximum", cfg.MaxCPU))
	}
	if cfg.MinRAMInGB > 0 && spec.RAMInGB < cfg.MinRAMInGB {
		errs = append(errs, boundsErr("custom.ram_gb", spec.RAMInGB, "below the region minimum", cfg.MinRAMInGB))
	}
	if cfg.MaxRAMInGB > 0 && spec.RAMInGB > cfg.MaxRAMInGB {
		errs = append(errs, boundsErr("custom.ram_gb", spec.RAMInGB, "above the region maximum", cfg.MaxRAMInGB))
	}
	if cfg.MinDiskInGB > 0 && spec.DiskInGB < cfg.MinDiskInGB {
		errs = append(errs, boundsErr("custom.disk_gb", spec.DiskInGB, "below the region minimum", cfg.MinDiskInGB))
	}
	if cfg.MaxDiskInGB > 0 && spec.DiskInGB > cfg.MaxDiskInGB {
		errs = append(errs, boundsErr("custom.disk_gb", spec.DiskInGB, "above the region maximum", cfg.MaxDiskInGB))
	}
	if cfg.MaxBandwidthInTB > 0 && spec.BandwidthInTB > cfg.MaxBandwidthInTB {
		errs = append(errs, boundsErr("custom.bandwidth_tb", spec.BandwidthInTB, "above the region maximum", cfg.MaxBandwidthInTB))
	}

	return errs
}

func boundsErr(field string, got int, direction string, bound int) types.FieldError {
	return types.FieldError{
		Field:  field,
		Reason: fmt.Sprintf("%d is %s of %d", got, direction, bound),
	}
}

// findOS resolves an OS id against the fetched OS catalog.
func findOS(osList []provider.OS, id string) (*provider.OS, *types.FieldError) {
	for i := range osList {
		if osList[i].ID == id {
			if !osList[i].IsActive {
				return nil, &types.FieldError{Field: "os_id", Reason: fmt.Sprintf("OS %q is not currently available", id)}
			}
			return &osList[i], nil
		}
	}
	return nil, &types.FieldError{Field: "os_id", Reason: fmt.Sprintf("unknown OS %q", id)}
}

// checkApplication verifies the application exists and is declared
// compatible with the chosen OS family.
func checkApplication(apps []provider.Application, osImage *provider.OS, appID string) *types.FieldError {
	for i := range apps {
		if apps[i].ID != appID {
			continue
		}
		if len(apps[i].OSFamilies) > 0 && !slices.Contains(apps[i].OSFamilies, osImage.Family) {
			return &types.FieldError{
				Field:  "application_id",
				Reason: fmt.Sprintf("application %q does not support the %s OS family", appID, osImage.Family),
			}
		}
		return nil
	}
	return &types.FieldError{Field: "application_id", Reason: fmt.Sprintf("unknown application %q", appID)}
}

// checkSSHKeys verifies every requested key id exists under the account.
func checkSSHKeys(keys []provider.SSHKey, ids []int64) []types.FieldError {
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k.ID.String()] = true
	}

	var errs []types.FieldError
	for _, id := range ids {
		if !known[fmt.Sprintf("%d", id)] {
			errs = append(errs, types.FieldError{
				Field:  "ssh_key_ids",
				Reason: fmt.Sprintf("unknown SSH key %d", id),
			})
		}
	}
	return errs
}
