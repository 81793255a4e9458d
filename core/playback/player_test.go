package playback

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSharedLoaderLoadsOnce(t *testing.T) {
	var loads int32
	api := newFakeAPI()
	loader := NewSharedLoader(func() (API, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(10 * time.Millisecond)
		return api, nil
	})

	// many concurrent sessions polling the same gate
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if got, ok := loader.API(); ok {
					assert.Equal(t, api, got)
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestSharedLoaderDoesNotBlockWhileLoading(t *testing.T) {
	release := make(chan struct{})
	loader := NewSharedLoader(func() (API, error) {
		<-release
		return newFakeAPI(), nil
	})

	_, ok := loader.API()
	assert.False(t, ok)
	close(release)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := loader.API(); ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("loader never yielded the API")
}

func TestSharedLoaderReportsNothingOnFailure(t *testing.T) {
	loader := NewSharedLoader(func() (API, error) {
		return nil, errors.New("script blocked")
	})

	loader.API()
	time.Sleep(10 * time.Millisecond)
	_, ok := loader.API()
	assert.False(t, ok)
}
