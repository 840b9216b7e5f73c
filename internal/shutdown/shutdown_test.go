package shutdown

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComponentsShutDownInReverseOrder(t *testing.T) {
	c := NewCoordinator(WithTimeout(time.Second))

	var order []string
	c.RegisterFunc("store", func(ctx context.Context) error {
		order = append(order, "store")
		return nil
	})
	c.RegisterFunc("server", func(ctx context.Context) error {
		order = append(order, "server")
		return nil
	})

	c.Shutdown()
	c.Wait()

	assert.Equal(t, []string{"server", "store"}, order)
	assert.Equal(t, 0, c.ExitCode())
}

func TestComponentErrorSetsExitCode(t *testing.T) {
	c := NewCoordinator(WithTimeout(time.Second))
	c.RegisterFunc("flaky", func(ctx context.Context) error {
		return errors.New("close failed")
	})

	c.Shutdown()
	c.Wait()

	assert.Equal(t, 1, c.ExitCode())
}

func TestTimeoutForcesTermination(t *testing.T) {
	c := NewCoordinator(WithTimeout(50 * time.Millisecond))
	c.RegisterFunc("stuck", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(time.Second)
		return ctx.Err()
	})

	start := time.Now()
	c.Shutdown()
	c.Wait()

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, c.ExitCode())
}

func TestSignalTriggersShutdown(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	c := NewCoordinator(WithTimeout(time.Second), WithSignalChannel(sigCh))

	fired := false
	c.RegisterFunc("server", func(ctx context.Context) error {
		fired = true
		return nil
	})

	go c.WaitForSignal()
	sigCh <- syscall.SIGTERM
	c.Wait()

	assert.True(t, fired)
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := NewCoordinator(WithTimeout(time.Second))

	calls := 0
	c.RegisterFunc("once", func(ctx context.Context) error {
		calls++
		return nil
	})

	c.Shutdown()
	c.Shutdown()
	c.Wait()

	assert.Equal(t, 1, calls)
}
