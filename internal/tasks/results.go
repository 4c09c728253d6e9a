package tasks

// ResultKind discriminates per-item import results by pipeline stage.
type ResultKind string

const (
	KindSpeech   ResultKind = "speech"
	KindActivity ResultKind = "activity"
	KindSong     ResultKind = "song"
	KindProgram  ResultKind = "program"
	KindResync   ResultKind = "resync"
)

// Status is the per-item outcome. Dry-run statuses predict exactly what the
// corresponding real run would report.
type Status string

const (
	StatusExists            Status = "exists"
	StatusWouldCreate       Status = "would-create"
	StatusWouldCreateBinary Status = "would-create-binary"
	StatusWouldUpdate       Status = "would-update"
	StatusCreated           Status = "created"
	StatusCreatedBinary     Status = "created-binary"
	StatusFailed            Status = "failed"
	StatusWouldResync       Status = "would-resync"
	StatusResynced          Status = "resynced"
)

// ImportResult is one item of the progress stream: a processed file, program
// or resynced program. Fields beyond Title and Status are populated per kind.
type ImportResult struct {
	Kind         ResultKind `json:"kind"`
	Title        string     `json:"title"`
	Label        string     `json:"label,omitempty"`
	Status       Status     `json:"status"`
	URL          string     `json:"url,omitempty"`
	Err          error      `json:"-"`
	ElementCount int        `json:"element_count,omitempty"`
	Missing      []string   `json:"missing_elements,omitempty"`
	Placeholders []string   `json:"created_placeholders,omitempty"`
	Added        int        `json:"added_elements,omitempty"`
}

// ImportRunResult groups the per-item results of one full import by stage.
type ImportRunResult struct {
	Speeches   []ImportResult `json:"speeches"`
	Activities []ImportResult `json:"activities"`
	Songs      []ImportResult `json:"songs"`
	Programs   []ImportResult `json:"programs"`
	Resyncs    []ImportResult `json:"resyncs"`
}

// All returns every result in stage order.
func (r *ImportRunResult) All() []ImportResult {
	out := make([]ImportResult, 0, len(r.Speeches)+len(r.Activities)+len(r.Songs)+len(r.Programs)+len(r.Resyncs))
	out = append(out, r.Speeches...)
	out = append(out, r.Activities...)
	out = append(out, r.Songs...)
	out = append(out, r.Programs...)
	out = append(out, r.Resyncs...)
	return out
}

// Tally counts results per status across all stages.
func (r *ImportRunResult) Tally() map[Status]int {
	tally := make(map[Status]int)
	for _, res := range r.All() {
		tally[res.Status]++
	}
	return tally
}
