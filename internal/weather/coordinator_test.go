package weather_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/tj/assert"

	"github.com/i474232898/weather-dashboard/internal/weather"
	mock "github.com/i474232898/weather-dashboard/internal/weather/mock"
)

const waitFor = 2 * time.Second

func record(city, label string) weather.WeatherRecord {
	return weather.WeatherRecord{
		City:       city,
		Conditions: []weather.ConditionDescriptor{{Label: label, Description: label}},
	}
}

func newCoordinator(t *testing.T, f weather.Fetcher, cfg weather.CoordinatorConfig) *weather.Coordinator {
	t.Helper()
	c := weather.NewCoordinator(f, cfg)
	t.Cleanup(c.Close)
	return c
}

func waitStatus(t *testing.T, c *weather.Coordinator, status weather.Status) weather.QueryState {
	t.Helper()
	assert.Eventually(t, func() bool {
		return c.State().Status() == status
	}, waitFor, 5*time.Millisecond)
	return c.State()
}

func TestCoordinatorQueryReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "London").
		Return(record("London", "Rain"), nil)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})

	var (
		mu       sync.Mutex
		statuses []weather.Status
	)
	c.Subscribe(func(s weather.QueryState) {
		mu.Lock()
		statuses = append(statuses, s.Status())
		mu.Unlock()
	})

	c.Query("  London  ")

	state := waitStatus(t, c, weather.StatusReady)
	rec, ok := state.Record()
	assert.True(t, ok)
	assert.Equal(t, "London", rec.City)
	assert.Equal(t, "London", state.Query())
	assert.Equal(t, weather.ConditionRain, c.Condition())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) == 2
	}, waitFor, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []weather.Status{weather.StatusLoading, weather.StatusReady}, statuses)
}

func TestCoordinatorQueryFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Atlantis").
		Return(weather.WeatherRecord{}, weather.ErrNotFound)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})
	c.Query("Atlantis")

	state := waitStatus(t, c, weather.StatusFailed)
	detail, ok := state.Detail()
	assert.True(t, ok)
	assert.Equal(t, weather.KindNotFound, detail.Kind)
	_, ok = state.Record()
	assert.False(t, ok)
	assert.Equal(t, weather.ConditionDefault, c.Condition())
}

func TestCoordinatorLastIssuedWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)

	parisStarted := make(chan struct{})
	releaseParis := make(chan struct{})
	parisDone := make(chan struct{})

	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Paris").
		DoAndReturn(func(ctx context.Context, q string) (weather.WeatherRecord, error) {
			defer close(parisDone)
			close(parisStarted)
			<-releaseParis
			// Completes successfully even though it was superseded.
			return record("Paris", "Clear"), nil
		})
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Tokyo").
		Return(record("Tokyo", "Clouds"), nil)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})

	c.Query("Paris")
	<-parisStarted
	c.Query("Tokyo")

	state := waitStatus(t, c, weather.StatusReady)
	rec, _ := state.Record()
	assert.Equal(t, "Tokyo", rec.City)

	close(releaseParis)
	<-parisDone

	// Give the stale completion a chance to (wrongly) land.
	time.Sleep(20 * time.Millisecond)
	rec, ok := c.State().Record()
	assert.True(t, ok)
	assert.Equal(t, "Tokyo", rec.City)
	assert.Equal(t, weather.ConditionClouds, c.Condition())
}

func TestCoordinatorStaleFailureDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)

	release := make(chan struct{})
	done := make(chan struct{})

	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Paris").
		DoAndReturn(func(ctx context.Context, q string) (weather.WeatherRecord, error) {
			defer close(done)
			<-release
			return weather.WeatherRecord{}, &weather.NetworkError{Err: ctx.Err()}
		})
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Tokyo").
		Return(record("Tokyo", "Clear"), nil)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})
	c.Query("Paris")
	c.Query("Tokyo")
	waitStatus(t, c, weather.StatusReady)

	close(release)
	<-done
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, weather.StatusReady, c.State().Status())
}

func TestCoordinatorSupersededContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)

	cancelled := make(chan struct{})
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Paris").
		DoAndReturn(func(ctx context.Context, q string) (weather.WeatherRecord, error) {
			<-ctx.Done()
			close(cancelled)
			return weather.WeatherRecord{}, ctx.Err()
		})
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Tokyo").
		Return(record("Tokyo", "Clear"), nil)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})
	c.Query("Paris")
	c.Query("Tokyo")

	select {
	case <-cancelled:
	case <-time.After(waitFor):
		t.Fatal("superseded request was not cancelled")
	}
	waitStatus(t, c, weather.StatusReady)
}

func TestCoordinatorSlowSubscriberSeesLatestLast(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Paris").
		Return(record("Paris", "Clear"), nil)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Tokyo").
		DoAndReturn(func(ctx context.Context, q string) (weather.WeatherRecord, error) {
			<-ctx.Done()
			return weather.WeatherRecord{}, ctx.Err()
		}).
		AnyTimes()

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu   sync.Mutex
		seen []weather.QueryState
	)
	c.Subscribe(func(s weather.QueryState) {
		if s.Status() == weather.StatusReady && s.Query() == "Paris" {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	c.Query("Paris")
	select {
	case <-entered:
	case <-time.After(waitFor):
		t.Fatal("Paris result never reached the subscriber")
	}

	c.Query("Tokyo")
	close(release)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, waitFor, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	last := seen[len(seen)-1]
	assert.Equal(t, weather.StatusLoading, last.Status())
	assert.Equal(t, "Tokyo", last.Query())
	assert.Equal(t, weather.StatusReady, seen[1].Status())
	assert.Equal(t, "Paris", seen[1].Query())

	state := c.State()
	assert.Equal(t, weather.StatusLoading, state.Status())
	assert.Equal(t, "Tokyo", state.Query())
}

func TestCoordinatorSubscriberMayQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Oslo").
		Return(weather.WeatherRecord{}, weather.ErrNotFound)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Bergen").
		Return(record("Bergen", "Rain"), nil)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})
	var retried int32
	c.Subscribe(func(s weather.QueryState) {
		if s.Status() == weather.StatusFailed && atomic.CompareAndSwapInt32(&retried, 0, 1) {
			c.Query("Bergen")
		}
	})

	c.Query("Oslo")
	assert.Eventually(t, func() bool {
		s := c.State()
		return s.Status() == weather.StatusReady && s.Query() == "Bergen"
	}, waitFor, 5*time.Millisecond)
}

func TestCoordinatorBlankQueryIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Rome").
		Return(record("Rome", "Clear"), nil)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})

	c.Query("")
	c.Query("   ")
	assert.Equal(t, weather.StatusIdle, c.State().Status())

	c.Query("Rome")
	before := waitStatus(t, c, weather.StatusReady)

	c.Query("")
	c.Query("\t ")
	after := c.State()
	assert.Equal(t, before.Status(), after.Status())
	assert.Equal(t, before.Query(), after.Query())
}

func TestCoordinatorReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)

	release := make(chan struct{})
	done := make(chan struct{})
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Cairo").
		DoAndReturn(func(ctx context.Context, q string) (weather.WeatherRecord, error) {
			defer close(done)
			<-release
			return record("Cairo", "Dust"), nil
		})

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})
	c.Query("Cairo")
	assert.Equal(t, weather.StatusLoading, c.State().Status())

	c.Reset()
	assert.Equal(t, weather.StatusIdle, c.State().Status())

	close(release)
	<-done
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, weather.StatusIdle, c.State().Status())
}

func TestCoordinatorRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Lima").
		Return(record("Lima", "Mist"), nil).
		Times(2)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})

	// Nothing to refresh before a first success.
	c.Refresh()
	assert.Equal(t, weather.StatusIdle, c.State().Status())

	c.Query("Lima")
	waitStatus(t, c, weather.StatusReady)

	c.Refresh()
	waitStatus(t, c, weather.StatusReady)
}

func TestCoordinatorRefreshSkipsFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Nowhere").
		Return(weather.WeatherRecord{}, weather.ErrNotFound).
		Times(1)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})
	c.Query("Nowhere")
	waitStatus(t, c, weather.StatusFailed)

	c.Refresh()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, weather.StatusFailed, c.State().Status())
}

func TestCoordinatorAutoRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)

	var calls int32
	fetcher.EXPECT().
		FetchWeather(gomock.Any(), "Sydney").
		DoAndReturn(func(ctx context.Context, q string) (weather.WeatherRecord, error) {
			atomic.AddInt32(&calls, 1)
			return record("Sydney", "Clear"), nil
		}).
		MinTimes(2)

	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{RefreshInterval: 100 * time.Millisecond})
	assert.NoError(t, c.Start())

	c.Query("Sydney")
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestCoordinatorCloseDropsSubscribers(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)

	var notified int32
	c := weather.NewCoordinator(fetcher, weather.CoordinatorConfig{})
	c.Subscribe(func(weather.QueryState) { atomic.AddInt32(&notified, 1) })
	c.Close()

	c.Query("Berlin")
	c.Reset()
	assert.Equal(t, int32(0), atomic.LoadInt32(&notified))
	assert.Equal(t, weather.StatusIdle, c.State().Status())
}

func TestCoordinatorUnsubscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockFetcher(ctrl)

	var notified int32
	c := newCoordinator(t, fetcher, weather.CoordinatorConfig{})
	unsubscribe := c.Subscribe(func(weather.QueryState) { atomic.AddInt32(&notified, 1) })

	c.Reset()
	unsubscribe()
	c.Reset()
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))
}
