package netshield

import (
	"context"
	"errors"
	"testing"

	"netshield/classifier"
	"netshield/models"
)

type fakeClassifier struct {
	verdict     classifier.Verdict
	err         error
	lastDataset string
	lastModel   string
	calls       int
}

func (c *fakeClassifier) AnalyzeFile(_ context.Context, dataset, model, _ string, _ []byte) (classifier.Verdict, error) {
	c.calls++
	c.lastDataset = dataset
	c.lastModel = model
	if c.err != nil {
		return classifier.Verdict{}, c.err
	}
	return c.verdict, nil
}

func (c *fakeClassifier) AnalyzeManual(_ context.Context, _ map[string]interface{}) (classifier.Verdict, error) {
	c.calls++
	if c.err != nil {
		return classifier.Verdict{}, c.err
	}
	return c.verdict, nil
}

func TestAnalyzeUploadPersistsEnrichedRecord(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	cls := &fakeClassifier{verdict: classifier.Verdict{Prediction: "Attack", Confidence: 0.93}}
	pipeline := NewPipeline(cls, store, "ml")

	payload := []byte("src,dst,pktcount\n1.2.3.4,5.6.7.8,42\n")
	result, err := pipeline.AnalyzeUpload(context.Background(), Upload{Filename: "flows.csv", Payload: payload}, nil)
	if err != nil {
		t.Fatalf("AnalyzeUpload returned error: %v", err)
	}

	if result.Prediction != "Attack" || result.Confidence != 0.93 {
		t.Fatalf("unexpected verdict in result: %+v", result)
	}
	if result.Dataset != DatasetSDN {
		t.Fatalf("expected sdn dataset, got %s", result.Dataset)
	}
	if result.SrcIP != "1.2.3.4" || result.DstIP != "5.6.7.8" {
		t.Fatalf("unexpected endpoints: src=%q dst=%q", result.SrcIP, result.DstIP)
	}
	if result.Source == nil || result.Source.Location != Locate("1.2.3.4") {
		t.Fatalf("source geo not attached: %+v", result.Source)
	}
	if result.Destination == nil || result.Destination.Location != Locate("5.6.7.8") {
		t.Fatalf("destination geo not attached: %+v", result.Destination)
	}

	if len(store.records) != 1 {
		t.Fatalf("expected exactly one persisted record, got %d", len(store.records))
	}
	record := store.records[0]
	if record.Filename != "flows.csv" || record.Result != "Attack" || record.Confidence != 0.93 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.SrcIP == nil || *record.SrcIP != "1.2.3.4" {
		t.Fatalf("record missing src: %+v", record)
	}
	if record.UserID != nil {
		t.Fatalf("anonymous upload must persist without owner, got %v", *record.UserID)
	}
	if record.Timestamp.IsZero() {
		t.Fatal("record timestamp not set")
	}
	if result.RecordID == "" {
		t.Fatal("result should carry the assigned record ID")
	}
}

func TestAnalyzeUploadDeclaredKindWins(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	cls := &fakeClassifier{verdict: classifier.Verdict{Prediction: "Normal", Confidence: 1}}
	pipeline := NewPipeline(cls, store, "ml")

	upload := Upload{
		Filename: "flows.csv",
		Payload:  []byte("pktcount,bytecount\n1,2\n"),
		Dataset:  "cicids",
		Model:    "dl",
	}
	result, err := pipeline.AnalyzeUpload(context.Background(), upload, nil)
	if err != nil {
		t.Fatalf("AnalyzeUpload returned error: %v", err)
	}

	if cls.lastDataset != "cicids" || cls.lastModel != "dl" {
		t.Fatalf("declared kinds not forwarded: dataset=%q model=%q", cls.lastDataset, cls.lastModel)
	}
	if result.Dataset != DatasetCICIDS {
		t.Fatalf("expected declared dataset in result, got %s", result.Dataset)
	}
}

func TestAnalyzeUploadClassifierFailurePersistsNothing(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	clsErr := &classifier.Error{Status: 500, Message: "model blew up"}
	pipeline := NewPipeline(&fakeClassifier{err: clsErr}, store, "ml")

	_, err := pipeline.AnalyzeUpload(context.Background(), Upload{Filename: "flows.csv", Payload: []byte("src,dst\n1.1.1.1,2.2.2.2\n")}, nil)
	if err == nil {
		t.Fatal("expected classification error")
	}

	var ce *classifier.Error
	if !errors.As(err, &ce) || ce.Status != 500 {
		t.Fatalf("expected classifier error with upstream status, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("no record may be persisted on failure, got %d", len(store.records))
	}
}

func TestAnalyzeUploadOwnerAttached(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	pipeline := NewPipeline(&fakeClassifier{verdict: classifier.Verdict{Prediction: "Benign", Confidence: 0.4}}, store, "ml")

	owner := int64(42)
	if _, err := pipeline.AnalyzeUpload(context.Background(), Upload{Filename: "f.csv", Payload: []byte("a,b\n1,2\n")}, &owner); err != nil {
		t.Fatalf("AnalyzeUpload returned error: %v", err)
	}

	if len(store.records) != 1 || store.records[0].UserID == nil || *store.records[0].UserID != 42 {
		t.Fatalf("owner not attached to record: %+v", store.records)
	}
}

func TestAnalyzeUploadNoDeduplication(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	pipeline := NewPipeline(&fakeClassifier{verdict: classifier.Verdict{Prediction: "Benign", Confidence: 0.4}}, store, "ml")

	upload := Upload{Filename: "same.csv", Payload: []byte("src,dst\n1.1.1.1,2.2.2.2\n")}
	for i := 0; i < 3; i++ {
		if _, err := pipeline.AnalyzeUpload(context.Background(), upload, nil); err != nil {
			t.Fatalf("AnalyzeUpload returned error: %v", err)
		}
	}

	if len(store.records) != 3 {
		t.Fatalf("identical resubmissions must append distinct records, got %d", len(store.records))
	}
}

func TestAnalyzeUploadStoreFailureSurfaces(t *testing.T) {
	t.Parallel()

	store := &fakeStore{appendErr: errors.New("disk full")}
	pipeline := NewPipeline(&fakeClassifier{verdict: classifier.Verdict{Prediction: "Benign"}}, store, "ml")

	if _, err := pipeline.AnalyzeUpload(context.Background(), Upload{Filename: "f.csv", Payload: []byte("a,b\n1,2\n")}, nil); err == nil {
		t.Fatal("expected persistence error to surface")
	}
}

func TestAnalyzeManualPersistsProbeRecord(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	pipeline := NewPipeline(&fakeClassifier{verdict: classifier.Verdict{Prediction: "Attack", Confidence: 0.77}}, store, "ml")

	features := models.ManualFeatures{"pktcount": 100, "bytecount": 2048}
	result, err := pipeline.AnalyzeManual(context.Background(), features, nil)
	if err != nil {
		t.Fatalf("AnalyzeManual returned error: %v", err)
	}

	if result.Filename != "manual-probe" {
		t.Fatalf("expected manual-probe filename, got %q", result.Filename)
	}
	if result.Source != nil || result.Destination != nil {
		t.Fatal("manual probes have no endpoints to geolocate")
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(store.records))
	}
	if store.records[0].SrcIP != nil || store.records[0].DstIP != nil {
		t.Fatalf("manual record must have absent endpoints: %+v", store.records[0])
	}
}
