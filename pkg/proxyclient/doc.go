/*
Package proxyclient implements the Proxy external collaborator from
spec §6: callSystemInterface, doCallSystemInterface, autoDeploy,
autoUndeploy.

GRPCProxy is a reference transport dialing the module fleet over gRPC
using grpc.ClientConn.Invoke directly with a JSON codec (jsonCodec),
the same way Manager.StartIngress dials a bare connection without a
generated client — there is no .proto build step in this repo. Fake is
an in-memory double for hook-invoker and install-engine tests.

This core never serves proxy traffic (spec §1 non-goal); it only
issues these four outbound calls.
*/
package proxyclient
