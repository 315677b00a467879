// Package metric publishes per-component counters with expvar. Counters
// are shared by all instances of the same component type.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const componentsLabel = "wvr.components"

const (
	// FrameCounter measures number of processed frames.
	FrameCounter = "Frames"
	// MessageCounter measures number of applied messages.
	MessageCounter = "Messages"
	// FailureCounter measures number of failed messages.
	FailureCounter = "Failures"
	// DropCounter measures number of dropped frames.
	DropCounter = "Dropped"
	// LatencyCounter measures duration of the last frame.
	LatencyCounter = "Latency"
	// DurationCounter measures total duration of processing.
	DurationCounter = "Duration"
	// ComponentCounter counts number of component instances.
	ComponentCounter = "Components"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		FrameCounter,
		MessageCounter,
		FailureCounter,
		DropCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Meter captures counters of a component instance. It's safe for
// concurrent use.
type Meter struct {
	metric metric
}

// New registers new instance of the component type.
func New(component interface{}) *Meter {
	m := components.get(getType(component))
	m.components.Add(1)
	return &Meter{metric: m}
}

// Frame counts processed frame and its duration.
func (m *Meter) Frame(elapsed time.Duration) {
	m.metric.frames.Add(1)
	m.metric.latency.set(elapsed)
	m.metric.duration.add(elapsed)
}

// Message counts applied message. Non-nil error counts a failure.
func (m *Meter) Message(err error) {
	if err != nil {
		m.metric.failures.Add(1)
		return
	}
	m.metric.messages.Add(1)
}

// Drop counts dropped frame.
func (m *Meter) Drop() {
	m.metric.dropped.Add(1)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		return metric
	}
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	components *expvar.Int
	frames     *expvar.Int
	messages   *expvar.Int
	failures   *expvar.Int
	dropped    *expvar.Int
	latency    *duration
	duration   *duration
}

func newMetric(componentType string) metric {
	m := metric{
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		frames:     expvar.NewInt(key(componentType, FrameCounter)),
		messages:   expvar.NewInt(key(componentType, MessageCounter)),
		failures:   expvar.NewInt(key(componentType, FailureCounter)),
		dropped:    expvar.NewInt(key(componentType, DropCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
