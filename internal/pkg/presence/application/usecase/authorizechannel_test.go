package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	identity "github.com/videv93/book-circle-sub001/internal/identity/port"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/channeltoken"
)

func TestAuthorizeChannel(t *testing.T) {
	ctx := context.Background()
	signer := channeltoken.NewSigner([]byte("test-secret"), time.Minute)

	newGate := func(claims *fakeClaims, ident *fakeIdentity) *AuthorizeChannelUseCase {
		return NewAuthorizeChannelUseCase(claims, ident, signer)
	}

	t.Run("presence channel grants a verifiable token with member metadata", func(t *testing.T) {
		claims := newFakeClaims()
		ident := newFakeIdentity(identity.Profile{UserID: "u1", DisplayName: "Ada", AvatarURL: "http://a/ada.png"})

		res, err := newGate(claims, ident).Execute(ctx, AuthorizeChannelInput{
			UserID: "u1", SocketID: "s1", Channel: "presence-room-book-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Member == nil || res.Member.Name != "Ada" {
			t.Fatalf("member metadata missing: %+v", res.Member)
		}

		verified, err := signer.Verify(res.Token, "s1", "presence-room-book-1")
		if err != nil {
			t.Fatalf("token should verify: %v", err)
		}
		if verified.Member == nil || verified.Member.UserID != "u1" {
			t.Errorf("token should embed the member: %+v", verified.Member)
		}
	})

	t.Run("approved claimant gets the author flag", func(t *testing.T) {
		claims := newFakeClaims()
		claims.approved["book-1"] = "author-1"
		ident := newFakeIdentity(identity.Profile{UserID: "author-1", DisplayName: "Toni"})

		res, err := newGate(claims, ident).Execute(ctx, AuthorizeChannelInput{
			UserID: "author-1", SocketID: "s1", Channel: "presence-room-book-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Member.IsAuthor {
			t.Error("claimant should carry the author flag")
		}
	})

	t.Run("claim store failure downgrades to non-author, not a denial", func(t *testing.T) {
		claims := newFakeClaims()
		claims.failWith = errors.New("redis down")
		ident := newFakeIdentity(identity.Profile{UserID: "u1", DisplayName: "Ada"})

		res, err := newGate(claims, ident).Execute(ctx, AuthorizeChannelInput{
			UserID: "u1", SocketID: "s1", Channel: "presence-room-book-1",
		})
		if err != nil {
			t.Fatalf("claim-store failure must not deny the subscription: %v", err)
		}
		if res.Member.IsAuthor {
			t.Error("claim-store failure must yield isAuthor=false")
		}
	})

	t.Run("private channel is joinable by its addressee only", func(t *testing.T) {
		ident := newFakeIdentity(identity.Profile{UserID: "u1", DisplayName: "Ada"})
		gate := newGate(newFakeClaims(), ident)

		res, err := gate.Execute(ctx, AuthorizeChannelInput{
			UserID: "u1", SocketID: "s1", Channel: "private-user-u1",
		})
		if err != nil {
			t.Fatalf("own private channel should be granted: %v", err)
		}
		if res.Member != nil {
			t.Error("private grants carry no member metadata")
		}

		if _, err := gate.Execute(ctx, AuthorizeChannelInput{
			UserID: "u1", SocketID: "s1", Channel: "private-user-u2",
		}); !errors.Is(err, ErrForbidden) {
			t.Errorf("foreign private channel: expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown channel class is forbidden", func(t *testing.T) {
		ident := newFakeIdentity(identity.Profile{UserID: "u1", DisplayName: "Ada"})
		if _, err := newGate(newFakeClaims(), ident).Execute(ctx, AuthorizeChannelInput{
			UserID: "u1", SocketID: "s1", Channel: "broadcast-all",
		}); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("missing identity is unauthenticated", func(t *testing.T) {
		gate := newGate(newFakeClaims(), newFakeIdentity())
		if _, err := gate.Execute(ctx, AuthorizeChannelInput{SocketID: "s1", Channel: "presence-room-book-1"}); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("empty user id: expected ErrUnauthenticated, got %v", err)
		}
		if _, err := gate.Execute(ctx, AuthorizeChannelInput{UserID: "ghost", SocketID: "s1", Channel: "presence-room-book-1"}); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("unknown user: expected ErrUnauthenticated, got %v", err)
		}
	})
}
