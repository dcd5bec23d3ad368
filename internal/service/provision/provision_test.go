package provision

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpsbridge/vpsbridge/internal/provider"
	"github.com/vpsbridge/vpsbridge/pkg/types"
)

func boolPtr(b bool) *bool { return &b }

// fakeGateway serves canned reference data and records mutating calls.
type fakeGateway struct {
	regions []provider.Region
	products map[string][]provider.Product
	osList  []provider.OS
	apps    []provider.Application
	sshKeys []provider.SSHKey

	listErr error

	createCalls  []*provider.CreateInstancePayload
	resizeCalls  []*provider.ResizeInstancePayload
}

func (f *fakeGateway) ListRegions(context.Context) ([]provider.Region, error) {
	return f.regions, f.listErr
}

func (f *fakeGateway) ListProducts(_ context.Context, regionID string) ([]provider.Product, error) {
	return f.products[regionID], f.listErr
}

func (f *fakeGateway) ListOS(context.Context) ([]provider.OS, error) {
	return f.osList, f.listErr
}

func (f *fakeGateway) ListApplications(context.Context) ([]provider.Application, error) {
	return f.apps, f.listErr
}

func (f *fakeGateway) ListSSHKeys(context.Context, string) ([]provider.SSHKey, error) {
	return f.sshKeys, f.listErr
}

func (f *fakeGateway) CreateInstance(_ context.Context, payload *provider.CreateInstancePayload) (json.RawMessage, error) {
	f.createCalls = append(f.createCalls, payload)
	return json.RawMessage(`{"id": "inst-1"}`), nil
}

func (f *fakeGateway) ResizeInstance(_ context.Context, _ string, payload *provider.ResizeInstancePayload) (json.RawMessage, error) {
	f.resizeCalls = append(f.resizeCalls, payload)
	return json.RawMessage(`{"id": "inst-1"}`), nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		regions: []provider.Region{
			{ID: "us-east", Name: "US East"},
			{ID: "eu-central", Name: "EU Central"},
			{ID: "ap-south", Name: "AP South", IsActive: boolPtr(false)},
			{
				ID:   "custom-land",
				Name: "Custom Land",
				Config: &provider.RegionConfig{
					MinCPU: 1, MaxCPU: 16,
					MinRAMInGB: 1, MaxRAMInGB: 64,
					MinDiskInGB: 10, MaxDiskInGB: 1000,
					MaxBandwidthInTB: 10,
				},
			},
		},
		products: map[string][]provider.Product{
			"us-east": {
				{ID: "prod-small", RegionID: "us-east", IsActive: true},
				{ID: "prod-legacy", RegionID: "us-east", IsActive: false},
			},
		},
		osList: []provider.OS{
			{ID: "debian-12", Family: "debian", IsActive: true},
			{ID: "centos-6", Family: "rhel", IsActive: false},
		},
		apps: []provider.Application{
			{ID: "app-wp", Name: "WordPress", OSFamilies: []string{"debian", "ubuntu"}},
			{ID: "app-any", Name: "Docker"},
		},
		sshKeys: []provider.SSHKey{
			{ID: json.Number("101"), Name: "laptop"},
		},
	}
}

func validCreateRequest() *CreateRequest {
	return &CreateRequest{
		Hostnames:     []string{"web-1"},
		Region:        "us-east",
		InstanceClass: "default",
		ProductID:     "prod-small",
		OSID:          "debian-12",
		AssignIPv4:    true,
	}
}

func requireValidationFailure(t *testing.T, err error) *types.ToolError {
	t.Helper()
	var toolErr *types.ToolError
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, types.ErrValidationFailed, toolErr.Kind)
	return toolErr
}

func TestCreateInstanceSuccess(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.ApplicationID = "app-wp"
	req.SSHKeyIDs = []int64{101}

	out, err := s.CreateInstance(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "inst-1"}`, string(out))

	require.Len(t, gw.createCalls, 1)
	payload := gw.createCalls[0]
	assert.Equal(t, []string{"web-1"}, payload.Hostnames)
	assert.Equal(t, "us-east", payload.Region)
	assert.Equal(t, "prod-small", payload.ProductID)
	assert.Equal(t, "debian-12", payload.OSID)
	assert.Equal(t, "app-wp", payload.ApplicationID)
	assert.Equal(t, []int64{101}, payload.SSHKeyIDs)
	assert.True(t, payload.AssignIPv4)
	assert.Nil(t, payload.ExtraResource)
}

func TestCreateInstancePlanNotInRegion(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.Region = "eu-central"

	_, err := s.CreateInstance(context.Background(), req)
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "product_id", toolErr.Fields[0].Field)
	assert.Empty(t, gw.createCalls, "validation failure must not provision anything")
}

func TestCreateInstanceInactiveProduct(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.ProductID = "prod-legacy"

	_, err := s.CreateInstance(context.Background(), req)
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "product_id", toolErr.Fields[0].Field)
	assert.Empty(t, gw.createCalls)
}

func TestCreateInstanceInactiveRegion(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.Region = "ap-south"

	_, err := s.CreateInstance(context.Background(), req)
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "region", toolErr.Fields[0].Field)
	assert.Empty(t, gw.createCalls)
}

func TestCreateInstanceUnknownRegionSkipsPlanCheck(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.Region = "atlantis"

	_, err := s.CreateInstance(context.Background(), req)
	toolErr := requireValidationFailure(t, err)
	// plan cannot be checked without a region, so only the region is reported
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "region", toolErr.Fields[0].Field)
}

func TestCreateInstanceCustomSpecBounds(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.Region = "custom-land"
	req.ProductID = ""
	req.Custom = &provider.ExtraResource{CPU: 32, RAMInGB: 4, DiskInGB: 50, BandwidthInTB: 2}

	_, err := s.CreateInstance(context.Background(), req)
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "custom.cpu", toolErr.Fields[0].Field)
	assert.Empty(t, gw.createCalls)
}

func TestCreateInstanceCustomSpecValid(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.Region = "custom-land"
	req.ProductID = ""
	req.Custom = &provider.ExtraResource{CPU: 4, RAMInGB: 8, DiskInGB: 100, BandwidthInTB: 5}

	_, err := s.CreateInstance(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, gw.createCalls, 1)
	assert.Equal(t, req.Custom, gw.createCalls[0].ExtraResource)
	assert.Empty(t, gw.createCalls[0].ProductID)
}

func TestCreateInstanceAccumulatesFieldErrors(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.Region = "eu-central"
	req.OSID = "windows-31"
	req.SSHKeyIDs = []int64{999}

	_, err := s.CreateInstance(context.Background(), req)
	toolErr := requireValidationFailure(t, err)

	var fields []string
	for _, f := range toolErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"product_id", "os_id", "ssh_key_ids"}, fields)
	assert.Empty(t, gw.createCalls)
}

func TestCreateInstanceApplicationIncompatible(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	gw.osList = append(gw.osList, provider.OS{ID: "alma-9", Family: "rhel", IsActive: true})

	req := validCreateRequest()
	req.OSID = "alma-9"
	req.ApplicationID = "app-wp"

	_, err := s.CreateInstance(context.Background(), req)
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "application_id", toolErr.Fields[0].Field)
}

func TestCreateInstanceApplicationWithoutFamilyRestriction(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	req := validCreateRequest()
	req.ApplicationID = "app-any"

	_, err := s.CreateInstance(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, gw.createCalls, 1)
}

func TestCreateInstanceGatewayErrorPropagates(t *testing.T) {
	gw := newFakeGateway()
	gw.listErr = &provider.UnreachableError{Err: errors.New("connection refused")}
	s := NewService(gw, nil)

	_, err := s.CreateInstance(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.True(t, provider.IsUnreachable(err))
	assert.Empty(t, gw.createCalls)
}

func TestResizeInstanceFixed(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	_, err := s.ResizeInstance(context.Background(), &ResizeRequest{
		InstanceID: "inst-1",
		Type:       "FIXED",
		ProductID:  "prod-big",
	})
	require.NoError(t, err)
	require.Len(t, gw.resizeCalls, 1)
	assert.Equal(t, "FIXED", gw.resizeCalls[0].Type)
	assert.Equal(t, "prod-big", gw.resizeCalls[0].ProductID)
}

func TestResizeInstanceFixedRequiresProduct(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	_, err := s.ResizeInstance(context.Background(), &ResizeRequest{
		InstanceID: "inst-1",
		Type:       "FIXED",
	})
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "product_id", toolErr.Fields[0].Field)
	assert.Empty(t, gw.resizeCalls)
}

func TestResizeInstanceCustomChecksRegionBounds(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	_, err := s.ResizeInstance(context.Background(), &ResizeRequest{
		InstanceID: "inst-1",
		Type:       "CUSTOM",
		RegionID:   "custom-land",
		Custom:     &provider.ExtraResource{CPU: 64, RAMInGB: 8, DiskInGB: 100},
	})
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "custom.cpu", toolErr.Fields[0].Field)
	assert.Empty(t, gw.resizeCalls)
}

func TestResizeInstanceCustomRequiresSpec(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	_, err := s.ResizeInstance(context.Background(), &ResizeRequest{
		InstanceID: "inst-1",
		Type:       "CUSTOM",
		RegionID:   "custom-land",
	})
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "custom", toolErr.Fields[0].Field)
	assert.Empty(t, gw.resizeCalls)
}

func TestResizeInstanceCustomUnknownRegion(t *testing.T) {
	gw := newFakeGateway()
	s := NewService(gw, nil)

	_, err := s.ResizeInstance(context.Background(), &ResizeRequest{
		InstanceID: "inst-1",
		Type:       "CUSTOM",
		RegionID:   "atlantis",
		Custom:     &provider.ExtraResource{CPU: 2, RAMInGB: 4, DiskInGB: 50},
	})
	toolErr := requireValidationFailure(t, err)
	require.Len(t, toolErr.Fields, 1)
	assert.Equal(t, "region_id", toolErr.Fields[0].Field)
	assert.Empty(t, gw.resizeCalls)
}
