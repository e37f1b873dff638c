package document

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Well-known record field names as stored in the status document. Merge
// updates address fields by these names so independent writers (the worker
// updating progress, a CLI setting cancel_requested) never clobber each other.
const (
	FieldID                     = "id"
	FieldFileName               = "file_name"
	FieldFilePath               = "file_path"
	FieldStatus                 = "status"
	FieldQueuedTime             = "queued_time"
	FieldStartTime              = "start_time"
	FieldEndTime                = "end_time"
	FieldLastUpdate             = "last_update"
	FieldOptions                = "options"
	FieldProgress               = "progress"
	FieldFileSize               = "file_size"
	FieldEstimatedDuration      = "estimated_duration"
	FieldElapsedTime            = "elapsed_time"
	FieldEnhancementsInProgress = "enhancements_in_progress"
	FieldActiveEnhancements     = "active_enhancements"
	FieldOutputFile             = "output_file"
	FieldImagesExtracted        = "images_extracted"
	FieldChunksFile             = "chunks_file"
	FieldChunksError            = "chunks_error"
	FieldError                  = "error"
	FieldErrorDetails           = "error_details"
	FieldStdErr                 = "stderr"
	FieldCancelRequested        = "cancel_requested"
)

// ErrorDetails carries the structured failure information recorded alongside
// the human-readable error message.
type ErrorDetails struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Record is the full mutable state of one submitted document. The status
// store is its single source of truth; every field write goes through a merge
// update rather than a record replace.
type Record struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`

	Status     Status     `json:"status"`
	QueuedTime *time.Time `json:"queued_time,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`

	Options ConversionOptions `json:"options"`

	Progress               float64  `json:"progress"`
	FileSize               int64    `json:"file_size"`
	EstimatedDuration      float64  `json:"estimated_duration"`
	ElapsedTime            float64  `json:"elapsed_time"`
	EnhancementsInProgress bool     `json:"enhancements_in_progress"`
	ActiveEnhancements     []string `json:"active_enhancements,omitempty"`

	OutputFile      string        `json:"output_file,omitempty"`
	ImagesExtracted int           `json:"images_extracted,omitempty"`
	ChunksFile      string        `json:"chunks_file,omitempty"`
	ChunksError     string        `json:"chunks_error,omitempty"`
	Error           string        `json:"error,omitempty"`
	ErrorDetails    *ErrorDetails `json:"error_details,omitempty"`
	StdErr          string        `json:"stderr,omitempty"`

	CancelRequested bool `json:"cancel_requested"`

	// Extra preserves fields written by newer or foreign writers so a merge
	// update from this process never drops them.
	Extra map[string]any `json:"-"`
}

var knownRecordFields = func() map[string]struct{} {
	fields := make(map[string]struct{})
	t := reflect.TypeOf(Record{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = struct{}{}
	}
	return fields
}()

// FromRaw decodes the raw JSON object form of a record, collecting fields this
// version does not model into Extra.
func FromRaw(raw map[string]any) (*Record, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	for key, value := range raw {
		if _, known := knownRecordFields[key]; known {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[key] = value
	}
	return &rec, nil
}

// ToRaw encodes the record back into its raw JSON object form, folding Extra
// fields back in. Known fields win on name collisions.
func (r *Record) ToRaw() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode record object: %w", err)
	}
	for key, value := range r.Extra {
		if _, known := knownRecordFields[key]; known {
			continue
		}
		raw[key] = value
	}
	return raw, nil
}

// Clone returns a deep-enough copy for handing records across goroutines.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.ActiveEnhancements != nil {
		cp.ActiveEnhancements = append([]string(nil), r.ActiveEnhancements...)
	}
	if r.ErrorDetails != nil {
		details := *r.ErrorDetails
		cp.ErrorDetails = &details
	}
	if r.Extra != nil {
		cp.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}
