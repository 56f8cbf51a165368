package geolocation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitForFix(t *testing.T, ch <-chan State) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case state, ok := <-ch:
			if !ok {
				t.Fatal("subscription closed before a fix arrived")
			}
			if !state.Loading {
				return state
			}
		case <-deadline:
			t.Fatal("timed out waiting for a fix")
		}
	}
}

func TestResolveDeliversFix(t *testing.T) {
	source := SourceFunc(func(ctx context.Context) (Position, error) {
		return Position{Latitude: -12.1, Longitude: -77.0}, nil
	})
	p := NewProvider(source, time.Second)
	defer p.Close()

	ch, cancel := p.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	p.Resolve(context.Background())
	state := waitForFix(t, ch)
	if state.Err != nil {
		t.Fatalf("unexpected error: %v", state.Err)
	}
	if state.Position.Latitude != -12.1 || state.Position.Longitude != -77.0 {
		t.Errorf("position = %+v", state.Position)
	}
}

func TestResolveFallsBackToDefaultCenterOnError(t *testing.T) {
	source := SourceFunc(func(ctx context.Context) (Position, error) {
		return Position{}, errors.New("permission denied")
	})
	p := NewProvider(source, time.Second)
	defer p.Close()

	ch, cancel := p.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	p.Resolve(context.Background())
	state := waitForFix(t, ch)
	if state.Err == nil {
		t.Fatal("expected an error state")
	}
	if state.Position != DefaultCenter {
		t.Errorf("fallback position = %+v, want Lima center %+v", state.Position, DefaultCenter)
	}
}

func TestResolveFallsBackOnTimeout(t *testing.T) {
	source := SourceFunc(func(ctx context.Context) (Position, error) {
		<-ctx.Done()
		return Position{}, ctx.Err()
	})
	p := NewProvider(source, 20*time.Millisecond)
	defer p.Close()

	ch, cancel := p.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	p.Resolve(context.Background())
	state := waitForFix(t, ch)
	if state.Position != DefaultCenter {
		t.Errorf("timeout fallback = %+v, want %+v", state.Position, DefaultCenter)
	}
}

func TestInitialStateIsDefaultCenter(t *testing.T) {
	p := NewProvider(SourceFunc(func(ctx context.Context) (Position, error) {
		return Position{}, nil
	}), time.Second)
	defer p.Close()

	state := p.State()
	if state.Position != DefaultCenter {
		t.Errorf("initial position = %+v, want %+v", state.Position, DefaultCenter)
	}
	if state.Loading {
		t.Error("provider should not be loading before Resolve")
	}
}

func TestCloseStopsNotifications(t *testing.T) {
	release := make(chan struct{})
	source := SourceFunc(func(ctx context.Context) (Position, error) {
		select {
		case <-release:
			return Position{Latitude: 1, Longitude: 1}, nil
		case <-ctx.Done():
			return Position{}, ctx.Err()
		}
	})
	p := NewProvider(source, time.Second)

	ch, cancel := p.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	p.Resolve(context.Background())
	p.Close()
	close(release)

	for {
		state, ok := <-ch
		if !ok {
			return // channel closed, as expected
		}
		if !state.Loading {
			t.Fatalf("received a fix after Close: %+v", state)
		}
	}
}
