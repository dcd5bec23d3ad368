package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Region is a provider datacenter location.
type Region struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbr         string `json:"abbr,omitempty"`
	IsActive     *bool  `json:"isActive,omitempty"`
	IsOutOfStock *bool  `json:"isOutOfStock,omitempty"`

	// Config carries region-specific metadata, including the advertised
	// bounds for custom plans.
	Config *RegionConfig `json:"config,omitempty"`
}

// RegionConfig holds the provider-advertised bounds for custom plans in a region.
// A zero max means the bound is not advertised and is not enforced locally.
type RegionConfig struct {
	MinCPU           int `json:"minCpu,omitempty"`
	MaxCPU           int `json:"maxCpu,omitempty"`
	MinRAMInGB       int `json:"minRamInGB,omitempty"`
	MaxRAMInGB       int `json:"maxRamInGB,omitempty"`
	MinDiskInGB      int `json:"minDiskInGB,omitempty"`
	MaxDiskInGB      int `json:"maxDiskInGB,omitempty"`
	MaxBandwidthInTB int `json:"maxBandwidthInTB,omitempty"`
}

// Active reports whether the region accepts new instances.
// Regions without an explicit flag are treated as active.
func (r *Region) Active() bool {
	return r.IsActive == nil || *r.IsActive
}

// PlanSpecification is the resource shape of a fixed plan.
type PlanSpecification struct {
	CPU           float64 `json:"cpu"`
	RAM           float64 `json:"ram"`
	RAMInMB       float64 `json:"ramInMB"`
	Storage       float64 `json:"storage"`
	BandwidthInTB float64 `json:"bandwidthInTB"`
}

// Plan is a provider-predefined CPU/RAM/disk bundle.
type Plan struct {
	ID            string            `json:"id"`
	Type          string            `json:"type,omitempty"`
	Specification PlanSpecification `json:"specification"`
	IsActive      bool              `json:"isActive"`
}

// Product is a plan offering in a specific region.
type Product struct {
	ID       string `json:"id"`
	RegionID string `json:"regionId"`
	PlanID   string `json:"planId"`
	IsActive bool   `json:"isActive"`
	Plan     Plan   `json:"plan"`
}

// OS is an operating system image offered by the provider.
type OS struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Family    string `json:"family"`
	Arch      string `json:"arch,omitempty"`
	MinRAM    string `json:"minRam,omitempty"`
	IsDefault bool   `json:"isDefault"`
	IsActive  bool   `json:"isActive"`
}

// Application is a one-click application image.
// OSFamilies is provider-declared compatibility metadata: the OS families
// the application can be installed on. Empty means compatible with all.
type Application struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	SupportLevel     string   `json:"supportLevel,omitempty"`
	OSFamilies       []string `json:"osFamilies,omitempty"`
}

// SSHKey is a public key stored under the account.
type SSHKey struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	PublicKey   string      `json:"publicKey,omitempty"`
	CustomerID  string      `json:"customerId,omitempty"`
}

// ListRegions fetches all regions.
func (c *Client) ListRegions(ctx context.Context) ([]Region, error) {
	q := url.Values{"per_page": {catalogPageSize}}
	data, err := c.get(ctx, "/v1/regions", q)
	if err != nil {
		return nil, err
	}
	var regions []Region
	if err := json.Unmarshal(data, &regions); err != nil {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}
	return regions, nil
}

// ListProducts fetches the plan offerings available in a region.
func (c *Client) ListProducts(ctx context.Context, regionID string) ([]Product, error) {
	q := url.Values{
		"regionId": {regionID},
		"per_page": {catalogPageSize},
	}
	data, err := c.get(ctx, "/v1/products", q)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// ListOS fetches the operating system catalog.
// The provider nests the OS list inside the data object.
func (c *Client) ListOS(ctx context.Context) ([]OS, error) {
	q := url.Values{"per_page": {catalogPageSize}}
	data, err := c.get(ctx, "/v1/os", q)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		OS []OS `json:"os"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode OS catalog: %w", err)
	}
	return wrapper.OS, nil
}

// ListApplications fetches the one-click application catalog.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	data, err := c.get(ctx, "/v1/applications", nil)
	if err != nil {
		return nil, err
	}
	var apps []Application
	if err := json.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}
	return apps, nil
}

// ListSSHKeys fetches the SSH keys stored under the effective account.
// customerID optionally scopes the listing to a specific customer.
func (c *Client) ListSSHKeys(ctx context.Context, customerID string) ([]SSHKey, error) {
	q := url.Values{"per_page": {catalogPageSize}}
	if customerID != "" {
		q.Set("customerId", customerID)
	}
	data, err := c.get(ctx, "/v1/ssh-keys", q)
	if err != nil {
		return nil, err
	}

	// The provider has returned both a bare array and a wrapped object here.
	var keys []SSHKey
	if err := json.Unmarshal(data, &keys); err == nil {
		return keys, nil
	}
	var wrapper struct {
		SSHKeys []SSHKey `json:"sshKeys"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode SSH keys: %w", err)
	}
	return wrapper.SSHKeys, nil
}
