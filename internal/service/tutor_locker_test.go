package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
)

func TestLocalTutorLockerSerialisesPerTutor(t *testing.T) {
	locker := NewLocalTutorLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := withTutorLock(context.Background(), locker, nil, "tutor-1", func() error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocalTutorLockerIndependentTutors(t *testing.T) {
	locker := NewLocalTutorLocker()
	unlock, err := locker.Lock(context.Background(), "tutor-1")
	require.NoError(t, err)
	defer unlock()

	other, err := locker.Lock(context.Background(), "tutor-2")
	require.NoError(t, err)
	other()
}

func TestLocalTutorLockerHonoursContext(t *testing.T) {
	locker := NewLocalTutorLocker()
	unlock, err := locker.Lock(context.Background(), "tutor-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "tutor-1")
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	err = withTutorLock(ctx, locker, nil, "tutor-1", func() error { return nil })
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal))
}
