package weather

import "encoding/json"

// Status is the tag of a QueryState.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// QueryState is one of Idle, Loading, Ready(record) or Failed(detail).
// Values are only built through the constructors below, so a record and an error
// can never be set at the same time.
type QueryState struct {
	status Status
	query  string
	record WeatherRecord
	detail ErrorDetail
}

func idleState() QueryState {
	return QueryState{status: StatusIdle}
}

func loadingState(query string) QueryState {
	return QueryState{status: StatusLoading, query: query}
}

func readyState(query string, record WeatherRecord) QueryState {
	return QueryState{status: StatusReady, query: query, record: record}
}

func failedState(query string, detail ErrorDetail) QueryState {
	return QueryState{status: StatusFailed, query: query, detail: detail}
}

// Status returns the state tag.
func (s QueryState) Status() Status {
	return s.status
}

// Query returns the location query this state belongs to. Empty when Idle.
func (s QueryState) Query() string {
	return s.query
}

// Record returns the weather record when the state is Ready.
func (s QueryState) Record() (WeatherRecord, bool) {
	if s.status != StatusReady {
		return WeatherRecord{}, false
	}
	return s.record, true
}

// Detail returns the failure detail when the state is Failed.
func (s QueryState) Detail() (ErrorDetail, bool) {
	if s.status != StatusFailed {
		return ErrorDetail{}, false
	}
	return s.detail, true
}

// Condition is Default unless the state is Ready.
func (s QueryState) Condition() ConditionCategory {
	if s.status != StatusReady {
		return ConditionDefault
	}
	return s.record.Condition()
}

// MarshalJSON renders the state as {"status": ..., "query": ..., "record"|"error": ...}.
func (s QueryState) MarshalJSON() ([]byte, error) {
	out := struct {
		Status    string            `json:"status"`
		Query     string            `json:"query,omitempty"`
		Condition ConditionCategory `json:"condition"`
		Record    *WeatherRecord    `json:"record,omitempty"`
		Error     *ErrorDetail      `json:"error,omitempty"`
	}{
		Status:    s.status.String(),
		Query:     s.query,
		Condition: s.Condition(),
	}
	if rec, ok := s.Record(); ok {
		out.Record = &rec
	}
	if detail, ok := s.Detail(); ok {
		out.Error = &detail
	}
	return json.Marshal(out)
}
