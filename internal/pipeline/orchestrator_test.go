package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/clipforge/api/internal/media"
	"github.com/clipforge/api/internal/model"
)

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
	// saves counts SaveJob calls so tests can assert a missing job caused
	// no writes at all.
	saves int
}

func newFakeJobStore(jobs ...*model.Job) *fakeJobStore {
	s := &fakeJobStore{jobs: make(map[string]*model.Job)}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *fakeJobStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *fakeJobStore) SaveJob(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	s.saves++
	return nil
}

func (s *fakeJobStore) get(id string) *model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[string]*model.Project
}

func newFakeProjectStore(projects ...*model.Project) *fakeProjectStore {
	s := &fakeProjectStore{projects: make(map[string]*model.Project)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *fakeProjectStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project not found")
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProjectStore) SaveProject(ctx context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *project
	s.projects[project.ID] = &cp
	return nil
}

func (s *fakeProjectStore) get(id string) *model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects[id]
}

type statusEvent struct {
	jobID        string
	status       model.JobStatus
	errorMessage string
}

type fakeNotifier struct {
	mu        sync.Mutex
	statuses  []statusEvent
	completed []string
}

func (n *fakeNotifier) JobStatusChanged(ownerID, jobID string, status model.JobStatus, errorMessage string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, statusEvent{jobID: jobID, status: status, errorMessage: errorMessage})
}

func (n *fakeNotifier) JobCompleted(ownerID, jobID, platform string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, jobID)
}

func (n *fakeNotifier) BatchCompleted(ownerID string, jobIDs []string) {}

// fakeBackend writes marker bytes for each rendered clip and records the
// order segments reach it.
type fakeBackend struct {
	mu         sync.Mutex
	rendered   []string // first text line per TextSlide call
	concatSrcs []string
	failConcat bool
}

func (b *fakeBackend) Probe(ctx context.Context, path string) (float64, error) { return 1, nil }

func (b *fakeBackend) Snapshot(ctx context.Context, path string, offsetSeconds float64, width, height int, outPath string) error {
	return os.WriteFile(outPath, []byte("snapshot"), 0o644)
}

func (b *fakeBackend) ImageToVideo(ctx context.Context, imagePath string, durationSeconds, width, height int, outPath string) error {
	return os.WriteFile(outPath, []byte("image:"+imagePath), 0o644)
}

func (b *fakeBackend) TextSlide(ctx context.Context, spec media.TextSlideSpec, outPath string) error {
	b.mu.Lock()
	if len(spec.Lines) > 0 {
		b.rendered = append(b.rendered, spec.Lines[0])
	}
	b.mu.Unlock()
	content := "slide"
	if len(spec.Lines) > 0 {
		content = "slide:" + spec.Lines[0]
	}
	return os.WriteFile(outPath, []byte(content), 0o644)
}

func (b *fakeBackend) TextOverlay(ctx context.Context, videoPath string, spec media.OverlaySpec, outPath string) error {
	return os.WriteFile(outPath, []byte("overlay:"+videoPath), 0o644)
}

func (b *fakeBackend) Concat(ctx context.Context, orderedPaths []string, outPath string) error {
	if b.failConcat {
		return fmt.Errorf("encoder exploded")
	}
	b.mu.Lock()
	b.concatSrcs = append([]string(nil), orderedPaths...)
	b.mu.Unlock()
	var joined []byte
	for _, p := range orderedPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		joined = append(joined, data...)
		joined = append(joined, '|')
	}
	return os.WriteFile(outPath, joined, 0o644)
}

type fakeAssets struct {
	paths map[string]string
}

func (a *fakeAssets) ResolvePath(ctx context.Context, assetID, ownerID string) (string, error) {
	if p, ok := a.paths[assetID]; ok {
		return p, nil
	}
	return "", &NotFoundError{Message: "asset not found"}
}

func newTestOrchestrator(t *testing.T, jobs *fakeJobStore, projects *fakeProjectStore, backend *fakeBackend, assets *fakeAssets) (*Orchestrator, *fakeNotifier, string, string) {
	t.Helper()
	tempDir := t.TempDir()
	outputDir := t.TempDir()
	if assets == nil {
		assets = &fakeAssets{paths: map[string]string{}}
	}
	notifier := &fakeNotifier{}
	renderer := NewSegmentRenderer(backend, assets)
	o := NewOrchestrator(jobs, projects, renderer, backend, notifier, nil, outputDir, tempDir)
	return o, notifier, tempDir, outputDir
}

type fakePublisher struct {
	localPaths []string
	keys       []string
	err        error
}

func (p *fakePublisher) PublishFile(ctx context.Context, localPath, key string) error {
	if p.err != nil {
		return p.err
	}
	p.localPaths = append(p.localPaths, localPath)
	p.keys = append(p.keys, key)
	return nil
}

func queuedJob(id, projectID string) *model.Job {
	return &model.Job{ID: id, ProjectID: projectID, OwnerID: "owner-1", Status: model.JobStatusQueued, Platform: "TikTok"}
}

func slideTimeline(texts ...string) string {
	out := `{"segments":[`
	for i, text := range texts {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"id":"s%d","type":"textSlide","text":"%s","order":%d}`, i, text, i)
	}
	return out + `]}`
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunRendersSegmentsInAscendingOrder(t *testing.T) {
	// Orders stored shuffled; processing must follow ascending order.
	timeline := `{"segments":[
		{"id":"c","type":"textSlide","text":"third","order":2},
		{"id":"a","type":"textSlide","text":"first","order":0},
		{"id":"b","type":"textSlide","text":"second","order":1}
	]}`
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: timeline}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	backend := &fakeBackend{}
	o, _, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(project), backend, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := backend.rendered
	expected := []string{"first", "second", "third"}
	if len(got) != len(expected) {
		t.Fatalf("rendered %d segments, want %d", len(got), len(expected))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("segment %d rendered %q, want %q", i, got[i], expected[i])
		}
	}

	if job := jobs.get("j1"); job.Status != model.JobStatusCompleted {
		t.Errorf("job status = %s, want Completed", job.Status)
	}
}

func TestRunSingleSegmentOutputIsByteIdentical(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: slideTimeline("hello")}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	backend := &fakeBackend{}
	o, _, _, outputDir := newTestOrchestrator(t, jobs, newFakeProjectStore(project), backend, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("job status = %s, want Completed (error %q)", job.Status, job.ErrorMessage)
	}
	if job.OutputPath == "" {
		t.Fatal("job has no output path")
	}
	if filepath.Dir(job.OutputPath) != outputDir {
		t.Errorf("output written to %s, want %s", filepath.Dir(job.OutputPath), outputDir)
	}

	data, err := os.ReadFile(job.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// Single artifact must be adopted without re-encoding.
	if string(data) != "slide:hello" {
		t.Errorf("output content = %q, want the rendered artifact verbatim", data)
	}
	if job.CompletedAt == nil || job.StartedAt == nil {
		t.Error("timestamps not recorded")
	}
}

func TestRunMultipleSegmentsConcatenated(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: slideTimeline("one", "two")}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	backend := &fakeBackend{}
	o, _, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(project), backend, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(backend.concatSrcs) != 2 {
		t.Fatalf("Concat received %d paths, want 2", len(backend.concatSrcs))
	}
	job := jobs.get("j1")
	data, err := os.ReadFile(job.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "slide:one|slide:two|" {
		t.Errorf("output content = %q", data)
	}
}

func TestRunUnknownSegmentTypeFailsJob(t *testing.T) {
	timeline := `{"segments":[{"id":"s0","type":"bogus","order":0}]}`
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: timeline, Status: model.ProjectStatusProcessing}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	projects := newFakeProjectStore(project)
	o, notifier, tempDir, outputDir := newTestOrchestrator(t, jobs, projects, &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusFailed {
		t.Fatalf("job status = %s, want Failed", job.Status)
	}
	if job.ErrorMessage != "Unknown segment type: bogus" {
		t.Errorf("error message = %q, want %q", job.ErrorMessage, "Unknown segment type: bogus")
	}
	if proj := projects.get("p1"); proj.Status != model.ProjectStatusFailed {
		t.Errorf("project status = %s, want Failed", proj.Status)
	}
	if names := dirEntries(t, outputDir); len(names) != 0 {
		t.Errorf("output dir not empty: %v", names)
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp dir not empty after failure: %v", names)
	}

	last := notifier.statuses[len(notifier.statuses)-1]
	if last.status != model.JobStatusFailed || last.errorMessage == "" {
		t.Errorf("final notification = %+v, want Failed with message", last)
	}
}

func TestRunMissingAssetFailsJob(t *testing.T) {
	timeline := `{"segments":[{"id":"s0","type":"image","assetId":"nope","order":0}]}`
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: timeline}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	o, _, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(project), &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusFailed {
		t.Fatalf("job status = %s, want Failed", job.Status)
	}
	if job.ErrorMessage != "Image asset not found" {
		t.Errorf("error message = %q", job.ErrorMessage)
	}
}

func TestRunEmptyTimelineFailsJob(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: `{"segments":[]}`}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	o, _, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(project), &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusFailed || job.ErrorMessage != "Timeline contains no segments" {
		t.Errorf("job = %s / %q", job.Status, job.ErrorMessage)
	}
}

func TestRunMissingProjectFailsJob(t *testing.T) {
	jobs := newFakeJobStore(queuedJob("j1", "p-gone"))
	o, _, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(), &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusFailed || job.ErrorMessage != "Project not found" {
		t.Errorf("job = %s / %q", job.Status, job.ErrorMessage)
	}
}

func TestRunMissingJobIsLoggedOnly(t *testing.T) {
	jobs := newFakeJobStore()
	o, notifier, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(), &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "ghost"); err != nil {
		t.Fatalf("Run should swallow a missing job, got %v", err)
	}
	if jobs.saves != 0 {
		t.Errorf("missing job caused %d saves, want 0", jobs.saves)
	}
	if len(notifier.statuses) != 0 || len(notifier.completed) != 0 {
		t.Error("missing job produced notifications")
	}
}

func TestRunSkipsTerminalJob(t *testing.T) {
	job := queuedJob("j1", "p1")
	job.Status = model.JobStatusCompleted
	jobs := newFakeJobStore(job)
	o, notifier, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(), &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jobs.saves != 0 {
		t.Errorf("terminal job was saved %d times, want 0", jobs.saves)
	}
	if got := jobs.get("j1").Status; got != model.JobStatusCompleted {
		t.Errorf("terminal status mutated to %s", got)
	}
	if len(notifier.statuses) != 0 {
		t.Error("terminal job produced notifications")
	}
}

func TestRunPublishesOutputUnderBasenameKey(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: slideTimeline("a")}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	o, _, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(project), &fakeBackend{}, nil)
	publisher := &fakePublisher{}
	o.publisher = publisher

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("job status = %s, want Completed", job.Status)
	}
	if len(publisher.keys) != 1 {
		t.Fatalf("published %d objects, want 1", len(publisher.keys))
	}
	if publisher.localPaths[0] != job.OutputPath {
		t.Errorf("published %s, want %s", publisher.localPaths[0], job.OutputPath)
	}
	if publisher.keys[0] != filepath.Base(job.OutputPath) {
		t.Errorf("published under key %s, want %s", publisher.keys[0], filepath.Base(job.OutputPath))
	}
}

func TestRunPublishFailureStillCompletesJob(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: slideTimeline("a")}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	o, _, _, outputDir := newTestOrchestrator(t, jobs, newFakeProjectStore(project), &fakeBackend{}, nil)
	o.publisher = &fakePublisher{err: fmt.Errorf("bucket unreachable")}

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("job status = %s, want Completed", job.Status)
	}
	if names := dirEntries(t, outputDir); len(names) != 1 {
		t.Errorf("output not kept on disk after publish failure: %v", names)
	}
}

func TestRunCleansTempFilesOnSuccess(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: slideTimeline("a", "b", "c")}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	o, _, tempDir, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(project), &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp dir not empty after success: %v", names)
	}
}

func TestRunConcatFailureRemovesPartialOutput(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: slideTimeline("a", "b")}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	backend := &fakeBackend{failConcat: true}
	o, _, tempDir, outputDir := newTestOrchestrator(t, jobs, newFakeProjectStore(project), backend, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := jobs.get("j1")
	if job.Status != model.JobStatusFailed {
		t.Fatalf("job status = %s, want Failed", job.Status)
	}
	if names := dirEntries(t, outputDir); len(names) != 0 {
		t.Errorf("partial output left behind: %v", names)
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp dir not empty: %v", names)
	}
}

func TestRunConcurrentJobsUseDisjointTempFiles(t *testing.T) {
	projectA := &model.Project{ID: "pa", OwnerID: "owner-1", Timeline: slideTimeline("a1", "a2")}
	projectB := &model.Project{ID: "pb", OwnerID: "owner-1", Timeline: slideTimeline("b1", "b2")}
	jobs := newFakeJobStore(queuedJob("ja", "pa"), queuedJob("jb", "pb"))
	o, _, tempDir, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(projectA, projectB), &fakeBackend{}, nil)

	var wg sync.WaitGroup
	for _, id := range []string{"ja", "jb"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := o.Run(context.Background(), id); err != nil {
				t.Errorf("Run %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"ja", "jb"} {
		if job := jobs.get(id); job.Status != model.JobStatusCompleted {
			t.Errorf("job %s status = %s (error %q)", id, job.Status, job.ErrorMessage)
		}
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp dir not empty: %v", names)
	}
}

func TestRunNotifiesProcessingThenCompleted(t *testing.T) {
	project := &model.Project{ID: "p1", OwnerID: "owner-1", Timeline: slideTimeline("x")}
	jobs := newFakeJobStore(queuedJob("j1", "p1"))
	o, notifier, _, _ := newTestOrchestrator(t, jobs, newFakeProjectStore(project), &fakeBackend{}, nil)

	if err := o.Run(context.Background(), "j1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(notifier.statuses) != 1 || notifier.statuses[0].status != model.JobStatusProcessing {
		t.Errorf("status events = %+v, want single Processing", notifier.statuses)
	}
	if len(notifier.completed) != 1 || notifier.completed[0] != "j1" {
		t.Errorf("completed events = %v, want [j1]", notifier.completed)
	}
}
