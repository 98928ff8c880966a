package proxyclient

import (
	"context"
	"fmt"

	"github.com/moduleplatform/tenantd/pkg/types"
	"google.golang.org/grpc"
)

// Service methods dialed on the module fleet's gRPC listener. There is
// no .proto for this service; GRPCProxy uses grpc.ClientConn.Invoke
// directly with jsonCodec the same way Manager.StartIngress dials a
// bare grpc.ClientConn without a generated client in the teacher.
const (
	methodCallSystemInterface = "/tenantlifecycle.Proxy/CallSystemInterface"
	methodAutoDeploy          = "/tenantlifecycle.Proxy/AutoDeploy"
	methodAutoUndeploy        = "/tenantlifecycle.Proxy/AutoUndeploy"
)

type systemInterfaceRequest struct {
	TenantID       string
	ModuleID       string
	Path           string
	Method         string
	SystemCall     bool
	Headers        map[string]string
	RequestID      string
	InheritContext bool
	Body           []byte
}

type systemInterfaceResponse struct {
	StatusCode int
	Body       []byte
}

type deployRequest struct {
	ModuleID string
}

type deployResponse struct{}

// GRPCProxy implements Proxy by dialing the module fleet over gRPC,
// grounded on Manager.StartIngress's grpc.NewClient(insecure) pattern.
type GRPCProxy struct {
	conn *grpc.ClientConn
}

// NewGRPCProxy wraps an established connection to the module fleet's
// gRPC listener.
func NewGRPCProxy(conn *grpc.ClientConn) *GRPCProxy {
	return &GRPCProxy{conn: conn}
}

func (p *GRPCProxy) invoke(ctx context.Context, method string, req, resp interface{}) error {
	if err := p.conn.Invoke(ctx, method, req, resp, grpc.ForceCodec(jsonCodec{})); err != nil {
		return fmt.Errorf("proxyclient: %s: %w", method, err)
	}
	return nil
}

// CallSystemInterface resolves tenant/proxyContext into the low-level
// DoCallSystemInterface call, matching spec §6's wrapper relationship.
func (p *GRPCProxy) CallSystemInterface(ctx context.Context, tenant *types.Tenant, instance ModuleInstance, body []byte, pctx ProxyContext) (*Response, error) {
	return p.DoCallSystemInterface(ctx, pctx.Headers, tenant.ID, pctx.RequestID, instance, pctx.InheritContext, body)
}

// DoCallSystemInterface issues the actual RPC.
func (p *GRPCProxy) DoCallSystemInterface(ctx context.Context, headers map[string]string, tenantID, requestID string, instance ModuleInstance, inheritContext bool, body []byte) (*Response, error) {
	req := &systemInterfaceRequest{
		TenantID:       tenantID,
		ModuleID:       instance.Module.ID,
		Path:           instance.Path,
		Method:         instance.Method,
		SystemCall:     instance.SystemCall,
		Headers:        headers,
		RequestID:      requestID,
		InheritContext: inheritContext,
		Body:           body,
	}
	resp := &systemInterfaceResponse{}
	if err := p.invoke(ctx, methodCallSystemInterface, req, resp); err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// AutoDeploy asks the module fleet to deploy md's artifact.
func (p *GRPCProxy) AutoDeploy(ctx context.Context, md *types.ModuleDescriptor) error {
	return p.invoke(ctx, methodAutoDeploy, &deployRequest{ModuleID: md.ID}, &deployResponse{})
}

// AutoUndeploy asks the module fleet to undeploy md's artifact.
func (p *GRPCProxy) AutoUndeploy(ctx context.Context, md *types.ModuleDescriptor) error {
	return p.invoke(ctx, methodAutoUndeploy, &deployRequest{ModuleID: md.ID}, &deployResponse{})
}

var _ Proxy = (*GRPCProxy)(nil)
