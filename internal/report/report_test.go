package report

import (
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/relforge/relgate/internal/pipeline"
	"github.com/relforge/relgate/internal/sequencer"
)

var fixedNow = time.Unix(1700000000, 0).UTC()

func abortedOutcome() *sequencer.Outcome {
	return &sequencer.Outcome{
		State:      sequencer.Aborted,
		FailedStep: sequencer.StepLint,
		Cause:      errors.New("lint broke"),
		Results: []sequencer.Result{
			{Step: sequencer.StepFormat, Passed: true, Duration: 1500 * time.Millisecond},
			{Step: sequencer.StepLint, Passed: false, Error: "lint broke", Duration: 2 * time.Second},
		},
	}
}

func passedOutcome() *sequencer.Outcome {
	return &sequencer.Outcome{
		State: sequencer.AllPassed,
		Results: []sequencer.Result{
			{Step: sequencer.StepFormat, Passed: true, Duration: time.Second},
			{Step: sequencer.StepLint, Passed: true, Duration: 2 * time.Second},
			{Step: sequencer.StepPolicy, Passed: true, Duration: time.Second},
			{Step: sequencer.StepAttribution, Passed: true, Duration: 30 * time.Second},
			{Step: sequencer.StepUnitTest, Passed: true, Duration: 45 * time.Second},
			{Step: sequencer.StepIntegrationTest, Passed: true, Duration: 90 * time.Second},
		},
	}
}

func passedRecords() []pipeline.SourceRecord {
	return []pipeline.SourceRecord{
		{Name: "vendor", Origin: ".", Files: 12},
		{Name: "cross", Origin: "https://example.com/cross.git", Revision: "7b790416c6b92fca1724aa3b4d4d6e843933decc", Files: 3},
		{Name: "cargo-dist", Origin: "https://example.com/cargo-dist.git", Revision: "3dcbe823", Files: 5},
	}
}

func TestTextReportAborted(t *testing.T) {
	r := Build(abortedOutcome(), nil, "", fixedNow)
	g := goldie.New(t)
	g.Assert(t, "report_aborted_text", []byte(r.Text()))
}

func TestTextReportPassed(t *testing.T) {
	r := Build(passedOutcome(), passedRecords(), "relgate-out/attributions.tar.gz", fixedNow)
	g := goldie.New(t)
	g.Assert(t, "report_passed_text", []byte(r.Text()))
}

func TestJSONReportAborted(t *testing.T) {
	r := Build(abortedOutcome(), nil, "", fixedNow)
	data, err := r.JSON()
	if err != nil {
		t.Fatal(err)
	}
	g := goldie.New(t)
	g.Assert(t, "report_aborted_json", data)
}

func TestBuildFieldMapping(t *testing.T) {
	r := Build(abortedOutcome(), nil, "", fixedNow)
	if r.State != "aborted" {
		t.Errorf("expected state aborted, got %q", r.State)
	}
	if r.FailedStep != sequencer.StepLint || r.Cause != "lint broke" {
		t.Errorf("failure context lost: %+v", r)
	}
	if r.GeneratedAt != "2023-11-14T22:13:20Z" {
		t.Errorf("unexpected timestamp %q", r.GeneratedAt)
	}
}
