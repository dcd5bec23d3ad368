package provider

import (
	"context"
	"encoding/json"
	"net/http"
)

// ExtraResource is the resource triple (plus bandwidth) of a custom plan.
type ExtraResource struct {
	CPU           int `json:"cpu,omitempty"`
	RAMInGB       int `json:"ramInGB,omitempty"`
	DiskInGB      int `json:"diskInGB,omitempty"`
	BandwidthInTB int `json:"bandwidthInTB,omitempty"`
}

// CreateInstancePayload is the provider-shaped body for instance creation.
// Exactly one of ProductID or ExtraResource must be set.
type CreateInstancePayload struct {
	Hostnames     []string       `json:"hostnames"`
	Region        string         `json:"region"`
	InstanceClass string         `json:"instance_class"`
	AssignIPv4    bool           `json:"assign_ipv4"`
	AssignIPv6    bool           `json:"assign_ipv6"`
	ProductID     string         `json:"product_id,omitempty"`
	ExtraResource *ExtraResource `json:"extra_resource,omitempty"`
	OSID          string         `json:"osId,omitempty"`
	SSHKeyIDs     []int64        `json:"sshKeyIds,omitempty"`
	ApplicationID string         `json:"applicationId,omitempty"`
}

// ResizeInstancePayload is the provider-shaped body for a resize.
// Type is "FIXED" (ProductID required) or "CUSTOM" (RegionID + ExtraResource).
type ResizeInstancePayload struct {
	Type          string         `json:"type"`
	ProductID     string         `json:"productId,omitempty"`
	RegionID      string         `json:"regionId,omitempty"`
	ExtraResource *ExtraResource `json:"extraResource,omitempty"`
}

// ListInstances fetches all instances visible to the account.
// The provider's descriptor list is returned verbatim; instance state is
// never cached across calls.
func (c *Client) ListInstances(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/v1/instances", nil)
}

// GetInstance fetches a single instance descriptor.
func (c *Client) GetInstance(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/instances/"+id, nil)
}

// CreateInstance issues the single mutating call of the provisioning
// workflow. It is never retried: creation is not guaranteed idempotent on
// the provider side and a blind retry risks duplicate provisioning.
func (c *Client) CreateInstance(ctx context.Context, payload *CreateInstancePayload) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/v1/instances", payload, nil)
}

// DeleteInstance permanently deletes an instance.
func (c *Client) DeleteInstance(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/v1/instances/"+id, nil, nil)
}

// powerAction posts a power state change for an instance.
func (c *Client) powerAction(ctx context.Context, action, id string) (json.RawMessage, error) {
	body := map[string]string{"instanceId": id}
	return c.do(ctx, http.MethodPost, "/v1/instances/"+action, body, nil)
}

// PowerOn powers on an instance.
func (c *Client) PowerOn(ctx context.Context, id string) (json.RawMessage, error) {
	return c.powerAction(ctx, "poweron", id)
}

// PowerOff powers off an instance.
func (c *Client) PowerOff(ctx context.Context, id string) (json.RawMessage, error) {
	return c.powerAction(ctx, "poweroff", id)
}

// Reset reboots an instance.
func (c *Client) Reset(ctx context.Context, id string) (json.RawMessage, error) {
	return c.powerAction(ctx, "reset", id)
}

// ChangePassword rotates the root password of an instance.
// The new password is part of the provider's response.
func (c *Client) ChangePassword(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/v1/instances/"+id+"/change-pass", nil, nil)
}

// ChangeOS reinstalls an instance with a different operating system.
func (c *Client) ChangeOS(ctx context.Context, id, osID string) (json.RawMessage, error) {
	body := map[string]string{"osId": osID}
	return c.do(ctx, http.MethodPost, "/v1/instances/"+id+"/change-os", body, nil)
}

// ResizeInstance changes the plan of an instance.
func (c *Client) ResizeInstance(ctx context.Context, id string, payload *ResizeInstancePayload) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/v1/instances/"+id+"/resize", payload, nil)
}

// GetSubscriptionRefund fetches the refund quote for an instance's subscription.
func (c *Client) GetSubscriptionRefund(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/instances/"+id+"/subscription-refund", nil)
}

// BulkSubscriptionRefund refunds the subscriptions of multiple instances at once.
func (c *Client) BulkSubscriptionRefund(ctx context.Context, ids []string) (json.RawMessage, error) {
	body := map[string][]string{"ids": ids}
	return c.do(ctx, http.MethodPost, "/v1/instances/bulk-subscription-refund", body, nil)
}
