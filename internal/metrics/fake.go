package metrics

// Point is one recorded metric.
type Point struct {
	Kind  string // "incr" or "gauge"
	Name  string
	Value float64
	Tags  []string
}

// FakeClient records metrics for tests.
type FakeClient struct {
	Points []Point
	Err    error
	Closed bool
}

func (f *FakeClient) Incr(name string, tags []string, _ float64) error {
	if f.Err != nil {
		return f.Err
	}
	f.Points = append(f.Points, Point{Kind: "incr", Name: name, Value: 1, Tags: tags})
	return nil
}

func (f *FakeClient) Gauge(name string, value float64, tags []string, _ float64) error {
	if f.Err != nil {
		return f.Err
	}
	f.Points = append(f.Points, Point{Kind: "gauge", Name: name, Value: value, Tags: tags})
	return nil
}

func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}
