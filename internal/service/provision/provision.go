// Package provision implements the multi-step instance creation workflow:
// a linear validation pipeline over provider reference data that culminates
// in a single mutating call, so a validation failure can never leave a
// partially created instance behind.
package provision

import (
	"context"
	"encoding/json"

	"github.com/vpsbridge/vpsbridge/internal/provider"
	"github.com/vpsbridge/vpsbridge/pkg/types"
	"go.uber.org/zap"
)

// Gateway is the subset of the provider API the workflow needs.
type Gateway interface {
	ListRegions(ctx context.Context) ([]provider.Region, error)
	ListProducts(ctx context.Context, regionID string) ([]provider.Product, error)
	ListOS(ctx context.Context) ([]provider.OS, error)
	ListApplications(ctx context.Context) ([]provider.Application, error)
	ListSSHKeys(ctx context.Context, customerID string) ([]provider.SSHKey, error)
	CreateInstance(ctx context.Context, payload *provider.CreateInstancePayload) (json.RawMessage, error)
	ResizeInstance(ctx context.Context, id string, payload *provider.ResizeInstancePayload) (json.RawMessage, error)
}

// CreateRequest describes one instance to be created.
// Exactly one of ProductID or Custom must be set; the registry's schema
// enforces this before the request reaches the workflow.
type CreateRequest struct {
	Hostnames     []string
	Region        string
	InstanceClass string

	ProductID string
	Custom    *provider.ExtraResource

	OSID          string
	ApplicationID string
	SSHKeyIDs     []int64

	AssignIPv4 bool
	AssignIPv6 bool
}

// Service runs provisioning workflows against a provider gateway.
type Service struct {
	gw     Gateway
	logger *zap.Logger
}

// NewService creates a provisioning service.
func NewService(gw Gateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gw: gw, logger: logger}
}

// CreateInstance validates the request against provider reference data and,
// only if every check passes, issues the one mutating creation call.
// The provider's instance descriptor is returned verbatim.
// Creation is never retried: it is not guaranteed idempotent upstream.
func (s *Service) CreateInstance(ctx context.Context, req *CreateRequest) (json.RawMessage, error) {
	var fieldErrs []types.FieldError

	regions, err := s.gw.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	region, regionErr := findRegion(regions, req.Region)
	if regionErr != nil {
		fieldErrs = append(fieldErrs, *regionErr)
	}

	// Plan checks depend on a valid region: fixed plans are offered
	// per region and custom bounds are advertised by the region.
	if region != nil {
		if req.ProductID != "" {
			products, err := s.gw.ListProducts(ctx, region.ID)
			if err != nil {
				return nil, err
			}
			if productErr := findProduct(products, req.ProductID); productErr != nil {
				fieldErrs = append(fieldErrs, *productErr)
			}
		} else if req.Custom != nil {
			fieldErrs = append(fieldErrs, checkCustomSpec(region, req.Custom)...)
		}
	}

	osList, err := s.gw.ListOS(ctx)
	if err != nil {
		return nil, err
	}
	osImage, osErr := findOS(osList, req.OSID)
	if osErr != nil {
		fieldErrs = append(fieldErrs, *osErr)
	}

	// Application compatibility is provider-declared metadata, checked
	// only when both the application and the OS resolved.
	if req.ApplicationID != "" && osImage != nil {
		apps, err := s.gw.ListApplications(ctx)
		if err != nil {
			return nil, err
		}
		if appErr := checkApplication(apps, osImage, req.ApplicationID); appErr != nil {
			fieldErrs = append(fieldErrs, *appErr)
		}
	}

	if len(req.SSHKeyIDs) > 0 {
		keys, err := s.gw.ListSSHKeys(ctx, "")
		if err != nil {
			return nil, err
		}
		fieldErrs = append(fieldErrs, checkSSHKeys(keys, req.SSHKeyIDs)...)
	}

	if len(fieldErrs) > 0 {
		return nil, &types.ToolError{
			Kind:    types.ErrValidationFailed,
			Message: "instance creation request failed validation",
			Fields:  fieldErrs,
		}
	}

	payload := &provider.CreateInstancePayload{
		Hostnames:     req.Hostnames,
		Region:        req.Region,
		InstanceClass: req.InstanceClass,
		AssignIPv4:    req.AssignIPv4,
		AssignIPv6:    req.AssignIPv6,
		ProductID:     req.ProductID,
		ExtraResource: req.Custom,
		OSID:          req.OSID,
		SSHKeyIDs:     req.SSHKeyIDs,
		ApplicationID: req.ApplicationID,
	}

	s.logger.Info("creating instance",
		zap.String("region", req.Region),
		zap.String("product_id", req.ProductID),
		zap.Strings("hostnames", req.Hostnames),
	)

	return s.gw.CreateInstance(ctx, payload)
}

// ResizeRequest describes a plan change for an existing instance.
type ResizeRequest struct {
	InstanceID string

	// Type is "FIXED" or "CUSTOM".
	Type string

	ProductID string
	RegionID  string
	Custom    *provider.ExtraResource
}

// ResizeInstance validates the resize shape and, for custom resizes, the
// region and its advertised bounds, then issues the single resize call.
func (s *Service) ResizeInstance(ctx context.Context, req *ResizeRequest) (json.RawMessage, error) {
	var fieldErrs []types.FieldError

	switch req.Type {
	case "FIXED":
		if req.ProductID == "" {
			fieldErrs = append(fieldErrs, types.FieldError{Field: "product_id", Reason: "required for a FIXED resize"})
		}
	case "CUSTOM":
		if req.Custom == nil {
			fieldErrs = append(fieldErrs, types.FieldError{Field: "custom", Reason: "required for a CUSTOM resize"})
		}
		if req.RegionID == "" {
			fieldErrs = append(fieldErrs, types.FieldError{Field: "region_id", Reason: "required for a CUSTOM resize"})
		} else {
			regions, err := s.gw.ListRegions(ctx)
			if err != nil {
				return nil, err
			}
			region, regionErr := findRegion(regions, req.RegionID)
			if regionErr != nil {
				regionErr.Field = "region_id"
				fieldErrs = append(fieldErrs, *regionErr)
			} else if req.Custom != nil {
				fieldErrs = append(fieldErrs, checkCustomSpec(region, req.Custom)...)
			}
		}
	}

	if len(fieldErrs) > 0 {
		return nil, &types.ToolError{
			Kind:    types.ErrValidationFailed,
			Message: "resize request failed validation",
			Fields:  fieldErrs,
		}
	}

	payload := &provider.ResizeInstancePayload{
		Type:          req.Type,
		ProductID:     req.ProductID,
		RegionID:      req.RegionID,
		ExtraResource: req.Custom,
	}
	return s.gw.ResizeInstance(ctx, req.InstanceID, payload)
}
