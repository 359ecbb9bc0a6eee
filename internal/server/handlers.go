package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"made/internal/engine"
	"made/internal/monitor"
	"made/internal/personality"
	"made/internal/snapshot"
	"made/internal/store"
	"made/internal/types"
)

// defaultStrength is echoed for simulations that do not pass one. The kernel
// fixes its own time constants, so the value only travels through the
// response.
const defaultStrength = 2.8

// oceanBody is the wire shape of one score vector. Dimensions are pointers
// so an absent one defaults instead of reading as zero.
type oceanBody struct {
	Openness          *float64 `json:"openness"`
	Conscientiousness *float64 `json:"conscientiousness"`
	Extraversion      *float64 `json:"extraversion"`
	Agreeableness     *float64 `json:"agreeableness"`
	Neuroticism       *float64 `json:"neuroticism"`
}

func (b oceanBody) scores() types.OceanScores {
	dim := func(v *float64) float64 {
		if v != nil {
			return *v
		}
		return personality.DefaultDimension
	}
	return types.OceanScores{
		Openness:          dim(b.Openness),
		Conscientiousness: dim(b.Conscientiousness),
		Extraversion:      dim(b.Extraversion),
		Agreeableness:     dim(b.Agreeableness),
		Neuroticism:       dim(b.Neuroticism),
	}
}

type saveScoresRequest struct {
	ReportID        string     `json:"report_id" validate:"required"`
	Timestamp       string     `json:"timestamp" validate:"required"`
	OceanScores     *oceanBody `json:"ocean_scores" validate:"required"`
	OceanNormalized *oceanBody `json:"ocean_normalized" validate:"required"`
}

type saveTaskRequest struct {
	ReportID      string  `json:"report_id" validate:"required"`
	TaskName      string  `json:"task_name" validate:"required"`
	Importance    float64 `json:"importance" validate:"gte=0,lte=1"`
	RequiredTime  float64 `json:"required_time" validate:"gt=0"`
	AvailableTime float64 `json:"available_time" validate:"gte=0"`
}

type saveScoresData struct {
	StoreID  string  `json:"store_id"`
	ReportID string  `json:"report_id"`
	PFactor  float64 `json:"p_factor"`
}

type saveScoresResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    saveScoresData `json:"data"`
}

type simulateInputs struct {
	PFactor        float64 `json:"p_factor"`
	DaysPassed     float64 `json:"days_passed"`
	MemoryStrength float64 `json:"memory_strength"`
}

type simulateResults struct {
	// RetentionMsg is the (retention, phase) pair, kept as a two-element
	// array for wire compatibility.
	RetentionMsg    []any   `json:"retention_msg"`
	ConfidenceScore float64 `json:"confidence_score"`
	ConfidenceLabel string  `json:"confidence_label"`
}

type simulateResponse struct {
	Success bool            `json:"success"`
	Inputs  simulateInputs  `json:"inputs"`
	Results simulateResults `json:"results"`
}

type recordResponse struct {
	Success bool                  `json:"success"`
	Data    types.CognitiveRecord `json:"data"`
}

type recordsResponse struct {
	Success bool                    `json:"success"`
	Count   int                     `json:"count"`
	Data    []types.CognitiveRecord `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type saveTaskResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

type tasksResponse struct {
	Success bool               `json:"success"`
	Tasks   []types.TaskRecord `json:"tasks"`
}

type generateMetadata struct {
	ConfidenceBand  string  `json:"confidence_band"`
	ConfidenceScore float64 `json:"confidence_score"`
	Retention       float64 `json:"retention"`
	Phase           string  `json:"phase"`
}

type generateResponse struct {
	Success  bool             `json:"success"`
	Response string           `json:"response"`
	Metadata generateMetadata `json:"metadata"`
}

// monitorStateBody adds the rendered status band to the observed state.
type monitorStateBody struct {
	monitor.State
	Status string `json:"status"`
}

type monitorStatusResponse struct {
	Success bool              `json:"success"`
	Active  bool              `json:"active"`
	State   *monitorStateBody `json:"state,omitempty"`
}

type historyResponse struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	History []snapshot.Snapshot `json:"history"`
}

type healthBody struct {
	Status     string `json:"status"`
	Store      string `json:"mongodb"`
	Database   string `json:"database,omitempty"`
	Collection string `json:"collection,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "MADE cognitive engine API",
		"status":  "running",
		"endpoints": map[string]string{
			"POST /api/save-ocean-scores":                 "Save an OCEAN assessment and project its p_factor",
			"GET /api/simulate-memory":                    "Evaluate the retention curve at an explicit day offset",
			"GET /api/get-ocean-scores/{report_id}":       "Get the newest record for an agent",
			"GET /api/all-ocean-scores":                   "Get all records, newest first",
			"DELETE /api/delete-ocean-scores/{report_id}": "Delete an agent's record",
			"POST /api/save-task":                         "Assign a task to an agent",
			"GET /api/get-tasks/{report_id}":              "Get an agent's tasks, newest first",
			"POST /api/generate-npc-response/{report_id}": "Regenerate the agent's utterance from its current retention",
			"POST /api/start-monitor/{report_id}":         "Start a live degradation session",
			"POST /api/stop-monitor/{report_id}":          "Stop the agent's degradation session",
			"GET /api/monitor-status/{report_id}":         "Last observed state of the agent's session",
			"GET /api/snapshot-history/{report_id}":       "Archived day-boundary events, oldest first",
		},
	})
}

// handleHealth reports store reachability. It never returns a non-200 so
// that probes distinguish "server down" from "store down".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusOK, healthBody{
			Status: "unhealthy",
			Store:  "disconnected",
			Error:  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, healthBody{
		Status:     "healthy",
		Store:      "connected",
		Database:   s.database,
		Collection: store.RecordCollection,
	})
}

func (s *Server) handleSaveScores(w http.ResponseWriter, r *http.Request) {
	var req saveScoresRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.engine.CreateRecord(r.Context(), engine.CreateRecordInput{
		ReportID:   req.ReportID,
		Timestamp:  req.Timestamp,
		Raw:        req.OceanScores.scores(),
		Normalized: req.OceanNormalized.scores(),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, saveScoresResponse{
		Success: true,
		Message: "OCEAN scores saved successfully",
		Data: saveScoresData{
			StoreID:  result.StoreID,
			ReportID: result.ReportID,
			PFactor:  result.PFactor,
		},
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	pFactor, err := queryFloat(r, "p_factor")
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	days, err := queryFloat(r, "days")
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	strength := defaultStrength
	if r.URL.Query().Get("strength") != "" {
		if strength, err = queryFloat(r, "strength"); err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	sim := s.engine.Simulate(pFactor, days, strength)
	s.writeJSON(w, http.StatusOK, simulateResponse{
		Success: true,
		Inputs: simulateInputs{
			PFactor:        sim.PFactor,
			DaysPassed:     sim.DaysPassed,
			MemoryStrength: sim.MemoryStrength,
		},
		Results: simulateResults{
			RetentionMsg:    []any{sim.Retention, sim.Phase},
			ConfidenceScore: sim.ConfidenceScore,
			ConfidenceLabel: sim.ConfidenceLabel,
		},
	})
}

func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.Record(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recordResponse{Success: true, Data: rec})
}

func (s *Server) handleAllScores(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.Records(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []types.CognitiveRecord{}
	}
	s.writeJSON(w, http.StatusOK, recordsResponse{
		Success: true,
		Count:   len(records),
		Data:    records,
	})
}

func (s *Server) handleDeleteScores(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	if err := s.engine.DeleteRecord(r.Context(), reportID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("Report %s deleted successfully", reportID),
	})
}

func (s *Server) handleSaveTask(w http.ResponseWriter, r *http.Request) {
	var req saveTaskRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	task, err := s.engine.CreateTask(r.Context(), engine.CreateTaskInput{
		ReportID:      req.ReportID,
		TaskName:      req.TaskName,
		Importance:    req.Importance,
		RequiredTime:  req.RequiredTime,
		AvailableTime: req.AvailableTime,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, saveTaskResponse{
		Success: true,
		Message: "Task saved successfully",
		TaskID:  task.TaskID,
	})
}

func (s *Server) handleGetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.engine.Tasks(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []types.TaskRecord{}
	}
	s.writeJSON(w, http.StatusOK, tasksResponse{Success: true, Tasks: tasks})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	baseMemory := r.URL.Query().Get("base_memory")

	res, err := s.engine.GenerateUtterance(r.Context(), reportID, baseMemory)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, generateResponse{
		Success:  true,
		Response: res.Text,
		Metadata: generateMetadata{
			ConfidenceBand:  res.ConfidenceLabel,
			ConfidenceScore: res.ConfidenceScore,
			Retention:       res.Retention,
			Phase:           res.Phase.String(),
		},
	})
}

func (s *Server) handleStartMonitor(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	if err := s.engine.StartMonitor(r.Context(), reportID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("Monitor started for %s", reportID),
	})
}

func (s *Server) handleStopMonitor(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	if err := s.engine.StopMonitor(reportID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("Monitor stopped for %s", reportID),
	})
}

func (s *Server) handleMonitorStatus(w http.ResponseWriter, r *http.Request) {
	state, ok := s.engine.MonitorStatus(chi.URLParam(r, "reportID"))
	if !ok {
		s.writeJSON(w, http.StatusOK, monitorStatusResponse{Success: true, Active: false})
		return
	}
	s.writeJSON(w, http.StatusOK, monitorStatusResponse{
		Success: true,
		Active:  true,
		State:   &monitorStateBody{State: state, Status: state.Status.String()},
	})
}

func (s *Server) handleSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.engine.SnapshotHistory(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if history == nil {
		history = []snapshot.Snapshot{}
	}
	s.writeJSON(w, http.StatusOK, historyResponse{
		Success: true,
		Count:   len(history),
		History: history,
	})
}
