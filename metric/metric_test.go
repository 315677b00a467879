package metric_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/wvr/metric"
)

type renderer struct{}

type encoder struct{}

func TestMeter(t *testing.T) {
	var tests = []struct {
		component          interface{}
		routines           int
		frames             int
		expectedFrames     string
		expectedFailures   string
		expectedComponents string
	}{
		{
			component:          renderer{},
			routines:           2,
			frames:             10,
			expectedFrames:     "20",
			expectedFailures:   "10",
			expectedComponents: "2",
		},
		{
			component:          &encoder{},
			routines:           3,
			frames:             5,
			expectedFrames:     "15",
			expectedFailures:   "3",
			expectedComponents: "3",
		},
	}
	testFn := func(m *metric.Meter, wg *sync.WaitGroup, frames int) {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			m.Frame(time.Millisecond)
			m.Drop()
		}
		m.Message(nil)
		m.Message(errors.New("failed"))
		if frames > 5 {
			for i := 0; i < frames/2-1; i++ {
				m.Message(errors.New("failed"))
			}
		}
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.New(c.component), wg, c.frames)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.component)
		assert.Equal(t, c.expectedFrames, values[metric.FrameCounter])
		assert.Equal(t, c.expectedFrames, values[metric.DropCounter])
		assert.Equal(t, c.expectedFailures, values[metric.FailureCounter])
		assert.Equal(t, c.expectedComponents, values[metric.ComponentCounter])
		assert.Equal(t, `"1ms"`, values[metric.LatencyCounter])
	}
	assert.Contains(t, metric.GetAll(), "metric_test.renderer")
}
