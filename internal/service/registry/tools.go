package registry

import (
	"context"
	"encoding/json"

	"github.com/vpsbridge/vpsbridge/internal/provider"
	"github.com/vpsbridge/vpsbridge/internal/service/provision"
	"github.com/vpsbridge/vpsbridge/pkg/types"
)

// ProviderGateway is the full provider surface the registered tools call.
type ProviderGateway interface {
	provision.Gateway

	ListInstances(ctx context.Context) (json.RawMessage, error)
	GetInstance(ctx context.Context, id string) (json.RawMessage, error)
	DeleteInstance(ctx context.Context, id string) (json.RawMessage, error)
	PowerOn(ctx context.Context, id string) (json.RawMessage, error)
	PowerOff(ctx context.Context, id string) (json.RawMessage, error)
	Reset(ctx context.Context, id string) (json.RawMessage, error)
	ChangePassword(ctx context.Context, id string) (json.RawMessage, error)
	ChangeOS(ctx context.Context, id, osID string) (json.RawMessage, error)
	GetSubscriptionRefund(ctx context.Context, id string) (json.RawMessage, error)
	BulkSubscriptionRefund(ctx context.Context, ids []string) (json.RawMessage, error)
}

// instanceIDSpec is shared by every tool that addresses a single instance.
var instanceIDSpec = types.ParamSpec{
	Type:        types.ParamString,
	Required:    true,
	Description: "The instance ID to operate on",
}

// NewRegistry builds the static tool registry.
// It is called exactly once at process start; the returned registry is
// read-only afterwards.
func NewRegistry(gw ProviderGateway, prov *provision.Service) (*Registry, error) {
	r := newRegistry()

	defs := []*ToolDefinition{
		{
			Name:        "list_instances",
			Description: "List all compute instances on the account.",
			Schema:      types.ToolInputSchema{},
			Handler: func(ctx context.Context, _ Args) (any, error) {
				return gw.ListInstances(ctx)
			},
		},
		{
			Name:        "get_instance",
			Description: "Get details of a specific compute instance by its ID.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{"instance_id": instanceIDSpec},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.GetInstance(ctx, args.String("instance_id"))
			},
		},
		{
			Name: "create_instance",
			Description: "Create a new compute instance. Choose either a fixed plan via product_id " +
				"or a custom plan via the custom object, never both.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{
					"hostnames": {
						Type:        types.ParamArray,
						Items:       types.ParamString,
						Required:    true,
						Description: "Hostnames for the new instances",
					},
					"region": {
						Type:        types.ParamString,
						Required:    true,
						Description: "Region ID to create the instance in",
					},
					"instance_class": {
						Type:        types.ParamString,
						Description: "Instance class, defaults to 'default'",
					},
					"product_id": {
						Type:        types.ParamString,
						Description: "Fixed plan product ID (mutually exclusive with custom)",
					},
					"custom": {
						Type:        types.ParamObject,
						Description: "Custom plan spec: {cpu, ram_gb, disk_gb, bandwidth_tb} (mutually exclusive with product_id)",
					},
					"os_id": {
						Type:        types.ParamString,
						Required:    true,
						Description: "Operating system ID to install",
					},
					"application_id": {
						Type:        types.ParamString,
						Description: "Optional one-click application ID, must be compatible with the chosen OS",
					},
					"ssh_key_ids": {
						Type:        types.ParamArray,
						Items:       types.ParamInteger,
						Description: "Optional SSH key IDs to install",
					},
					"assign_ipv4": {
						Type:        types.ParamBoolean,
						Description: "Assign a public IPv4 address (default true)",
					},
					"assign_ipv6": {
						Type:        types.ParamBoolean,
						Description: "Assign a public IPv6 address (default false)",
					},
				},
				OneOf: [][]string{{"product_id", "custom"}},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return handleCreateInstance(ctx, prov, args)
			},
		},
		{
			Name:        "resize_instance",
			Description: "Resize a compute instance to a different fixed or custom plan.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{
					"instance_id": instanceIDSpec,
					"type": {
						Type:        types.ParamString,
						Required:    true,
						Enum:        []string{"FIXED", "CUSTOM"},
						Description: "Resize to a FIXED product or a CUSTOM spec",
					},
					"product_id": {
						Type:        types.ParamString,
						Description: "Product ID for a FIXED resize",
					},
					"region_id": {
						Type:        types.ParamString,
						Description: "Region ID for a CUSTOM resize",
					},
					"custom": {
						Type:        types.ParamObject,
						Description: "Custom plan spec for a CUSTOM resize",
					},
				},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return handleResizeInstance(ctx, prov, args)
			},
		},
		{
			Name:        "delete_instance",
			Description: "Permanently delete a compute instance.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{"instance_id": instanceIDSpec},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.DeleteInstance(ctx, args.String("instance_id"))
			},
		},
		{
			Name:        "power_on_instance",
			Description: "Power on a compute instance.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{"instance_id": instanceIDSpec},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.PowerOn(ctx, args.String("instance_id"))
			},
		},
		{
			Name:        "power_off_instance",
			Description: "Power off a compute instance.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{"instance_id": instanceIDSpec},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.PowerOff(ctx, args.String("instance_id"))
			},
		},
		{
			Name:        "reset_instance",
			Description: "Reset (reboot) a compute instance.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{"instance_id": instanceIDSpec},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.Reset(ctx, args.String("instance_id"))
			},
		},
		{
			Name:        "change_password",
			Description: "Generate a new root password for a compute instance.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{"instance_id": instanceIDSpec},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.ChangePassword(ctx, args.String("instance_id"))
			},
		},
		{
			Name:        "change_os",
			Description: "Reinstall a compute instance with a different operating system.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{
					"instance_id": instanceIDSpec,
					"os_id": {
						Type:        types.ParamString,
						Required:    true,
						Description: "The OS ID to install",
					},
				},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.ChangeOS(ctx, args.String("instance_id"), args.String("os_id"))
			},
		},
		{
			Name:        "list_regions",
			Description: "List available cloud regions.",
			Schema:      types.ToolInputSchema{},
			Handler: func(ctx context.Context, _ Args) (any, error) {
				return gw.ListRegions(ctx)
			},
		},
		{
			Name:        "list_products",
			Description: "List the fixed plan products offered in a region.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{
					"region_id": {
						Type:        types.ParamString,
						Required:    true,
						Description: "Region ID to list products for",
					},
				},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.ListProducts(ctx, args.String("region_id"))
			},
		},
		{
			Name:        "list_os",
			Description: "List available operating system images.",
			Schema:      types.ToolInputSchema{},
			Handler: func(ctx context.Context, _ Args) (any, error) {
				return gw.ListOS(ctx)
			},
		},
		{
			Name:        "list_applications",
			Description: "List available one-click applications.",
			Schema:      types.ToolInputSchema{},
			Handler: func(ctx context.Context, _ Args) (any, error) {
				return gw.ListApplications(ctx)
			},
		},
		{
			Name:        "list_ssh_keys",
			Description: "List SSH keys associated with the account.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{
					"customer_id": {
						Type:        types.ParamString,
						Description: "Optional customer ID to scope the listing",
					},
				},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.ListSSHKeys(ctx, args.String("customer_id"))
			},
		},
		{
			Name:        "get_subscription_refund",
			Description: "Get the refund quote for an instance's subscription.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{"instance_id": instanceIDSpec},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.GetSubscriptionRefund(ctx, args.String("instance_id"))
			},
		},
		{
			Name:        "bulk_subscription_refund",
			Description: "Refund the subscriptions of multiple instances at once.",
			Schema: types.ToolInputSchema{
				Properties: map[string]types.ParamSpec{
					"instance_ids": {
						Type:        types.ParamArray,
						Items:       types.ParamString,
						Required:    true,
						Description: "Instance IDs to refund",
					},
				},
			},
			Handler: func(ctx context.Context, args Args) (any, error) {
				return gw.BulkSubscriptionRefund(ctx, args.StringSlice("instance_ids"))
			},
		},
	}

	for _, def := range defs {
		if err := r.register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// handleCreateInstance maps validated tool arguments onto a provisioning request.
func handleCreateInstance(ctx context.Context, prov *provision.Service, args Args) (any, error) {
	req := &provision.CreateRequest{
		Hostnames:     args.StringSlice("hostnames"),
		Region:        args.String("region"),
		InstanceClass: args.String("instance_class"),
		ProductID:     args.String("product_id"),
		OSID:          args.String("os_id"),
		ApplicationID: args.String("application_id"),
		SSHKeyIDs:     args.Int64Slice("ssh_key_ids"),
		AssignIPv4:    args.Bool("assign_ipv4", true),
		AssignIPv6:    args.Bool("assign_ipv6", false),
	}
	if req.InstanceClass == "" {
		req.InstanceClass = "default"
	}

	if custom := args.Object("custom"); custom != nil {
		spec, err := parseCustomSpec(custom)
		if err != nil {
			return nil, err
		}
		req.Custom = spec
	}

	return prov.CreateInstance(ctx, req)
}

// handleResizeInstance maps validated tool arguments onto a resize request.
func handleResizeInstance(ctx context.Context, prov *provision.Service, args Args) (any, error) {
	req := &provision.ResizeRequest{
		InstanceID: args.String("instance_id"),
		Type:       args.String("type"),
		ProductID:  args.String("product_id"),
		RegionID:   args.String("region_id"),
	}
	if custom := args.Object("custom"); custom != nil {
		spec, err := parseCustomSpec(custom)
		if err != nil {
			return nil, err
		}
		req.Custom = spec
	}
	return prov.ResizeInstance(ctx, req)
}

// parseCustomSpec decodes the nested custom plan object.
// The nested fields are loosely typed on the wire, so their shape is
// checked here rather than by the top-level schema validator.
func parseCustomSpec(custom map[string]any) (*provider.ExtraResource, error) {
	spec := &provider.ExtraResource{}
	var fieldErrs []types.FieldError

	for key, dst := range map[string]*int{
		"cpu":          &spec.CPU,
		"ram_gb":       &spec.RAMInGB,
		"disk_gb":      &spec.DiskInGB,
		"bandwidth_tb": &spec.BandwidthInTB,
	} {
		val, ok := custom[key]
		if !ok {
			continue
		}
		if !isInteger(val) {
			fieldErrs = append(fieldErrs, types.FieldError{
				Field:  "custom." + key,
				Reason: "must be an integer",
			})
			continue
		}
		*dst = Args(custom).Int(key)
	}

	for key := range custom {
		switch key {
		case "cpu", "ram_gb", "disk_gb", "bandwidth_tb":
		default:
			fieldErrs = append(fieldErrs, types.FieldError{Field: "custom." + key, Reason: "unknown parameter"})
		}
	}

	if len(fieldErrs) > 0 {
		return nil, &types.ToolError{
			Kind:    types.ErrInvalidArguments,
			Message: "invalid custom plan spec",
			Fields:  fieldErrs,
		}
	}
	return spec, nil
}
