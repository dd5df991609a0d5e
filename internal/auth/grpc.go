package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneFlightAuthority/models"
)

// UserLookup resolves usernames to stored users.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

func allowSet(methods []string) map[string]struct{} {
	allow := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return allow
}

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and validates
// a Bearer JWT from incoming metadata and injects the Principal into the context.
// Methods listed in allowUnauthenticated will bypass authentication (e.g., health checks).
func NewUnaryAuthInterceptor(secret string, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := allowSet(allowUnauthenticated)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		p, err := ParseFromMD(ctx, secret)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

type principalStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *principalStream) Context() context.Context { return s.ctx }

// NewStreamAuthInterceptor is the streaming counterpart of NewUnaryAuthInterceptor.
func NewStreamAuthInterceptor(secret string, allowUnauthenticated ...string) grpc.StreamServerInterceptor {
	allow := allowSet(allowUnauthenticated)
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(srv, ss)
		}
		p, err := ParseFromMD(ss.Context(), secret)
		if err != nil {
			return status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		return handler(srv, &principalStream{ServerStream: ss, ctx: WithPrincipal(ss.Context(), p)})
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing principal")
	}
	return p, nil
}

// ResolveActor loads the stored user behind the context principal. The token
// role must match the stored role and the user must be active, so a token
// outliving a demotion or deactivation is refused.
func ResolveActor(ctx context.Context, users UserLookup) (*models.User, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return ResolvePrincipal(ctx, users, p)
}

// ResolvePrincipal is ResolveActor for a principal obtained outside gRPC.
func ResolvePrincipal(ctx context.Context, users UserLookup, p *Principal) (*models.User, error) {
	if users == nil {
		return nil, status.Error(codes.Internal, "users repository not configured")
	}
	u, err := users.GetByUsername(ctx, p.Name)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get user: %v", err)
	}
	if u == nil {
		return nil, status.Errorf(codes.Unauthenticated, "unknown user %q", p.Name)
	}
	if !u.IsActive {
		return nil, status.Errorf(codes.PermissionDenied, "user %q is inactive", p.Name)
	}
	if string(u.Role) != p.Kind {
		return nil, status.Errorf(codes.PermissionDenied, "token role %s does not match user role", p.Kind)
	}
	return u, nil
}

// RequireRole resolves the actor and ensures it holds one of roles.
func RequireRole(ctx context.Context, users UserLookup, roles ...models.UserRole) (*models.User, error) {
	u, err := ResolveActor(ctx, users)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if u.Role == r {
			return u, nil
		}
	}
	return nil, status.Errorf(codes.PermissionDenied, "role %s cannot perform this action", u.Role)
}
