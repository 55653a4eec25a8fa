package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cardview/internal/export"
	"cardview/internal/filter"
	"cardview/internal/kanban/models"
	"cardview/internal/kanban/operations"
	"cardview/internal/projection"
	"cardview/internal/undo"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server exposes view projections and card operations over HTTP, and pushes
// refresh events to websocket clients through its Hub.
type Server struct {
	engine  *projection.Engine
	ops     *operations.Service
	hub     *Hub
	logger  *zap.Logger
	origins []string

	upgrader websocket.Upgrader
}

// New creates a server. The hub must be running for websocket clients to
// receive events.
func New(ops *operations.Service, hub *Hub, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{
		engine:  ops.Engine,
		ops:     ops,
		hub:     hub,
		logger:  logger,
		origins: allowedOrigins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins; cors guards the API
			},
		},
	}
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/boards", s.handleBoards).Methods("GET")
	api.HandleFunc("/boards/{board}/views", s.handleViews).Methods("GET")

	api.HandleFunc("/views/{view}", s.handleProject).Methods("GET")
	api.HandleFunc("/views/{view}/cards", s.handleAddCard).Methods("POST")
	api.HandleFunc("/views/{view}/groups/{option}/hide", s.handleHideGroup).Methods("POST")
	api.HandleFunc("/views/{view}/groups/{option}/show", s.handleShowGroup).Methods("POST")
	api.HandleFunc("/views/{view}/groupBy", s.handleGroupBy).Methods("PUT")
	api.HandleFunc("/views/{view}/sort", s.handleSort).Methods("PUT")
	api.HandleFunc("/views/{view}/filter", s.handleFilter).Methods("PUT")
	api.HandleFunc("/views/{view}/order", s.handleReorder).Methods("PUT")
	api.HandleFunc("/views/{view}/export.csv", s.handleExport("csv")).Methods("GET")
	api.HandleFunc("/views/{view}/export.xlsx", s.handleExport("xlsx")).Methods("GET")

	api.HandleFunc("/cards", s.handleDeleteCards).Methods("DELETE")
	api.HandleFunc("/cards/{card}/properties/{property}", s.handleSetProperty).Methods("PUT")

	api.HandleFunc("/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/redo", s.handleRedo).Methods("POST")

	r.HandleFunc("/ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// viewResponse is the JSON rendering of a projection.
type viewResponse struct {
	Board     models.Board             `json:"board"`
	View      models.BoardView         `json:"view"`
	Cards     []models.CardPage        `json:"cards"`
	GroupBy   *models.PropertyTemplate `json:"groupBy,omitempty"`
	DateBy    *models.PropertyTemplate `json:"dateDisplay,omitempty"`
	Visible   []groupResponse          `json:"visibleGroups,omitempty"`
	Hidden    []groupResponse          `json:"hiddenGroups,omitempty"`
	Templates []models.Card            `json:"templates,omitempty"`
	ReadOnly  bool                     `json:"readOnly"`
}

type groupResponse struct {
	Option  models.PropertyOption `json:"option"`
	CardIDs []string              `json:"cardIds"`
}

func groupsResponse(groups []models.BoardGroup) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		ids := make([]string, 0, len(g.Cards))
		for _, c := range g.Cards {
			ids = append(ids, c.ID)
		}
		out = append(out, groupResponse{Option: g.Option, CardIDs: ids})
	}
	return out
}

func newViewResponse(res projection.Result) viewResponse {
	out := viewResponse{
		Board:     res.Board,
		View:      res.View,
		Cards:     res.CardPages,
		DateBy:    res.DateDisplayProperty,
		Templates: res.Templates,
		ReadOnly:  res.ReadOnly,
	}
	if res.IsGrouped() {
		out.GroupBy = res.GroupByProperty
		out.Visible = groupsResponse(res.Visible)
		out.Hidden = groupsResponse(res.Hidden)
	}
	return out
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Store.Boards())
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["board"]
	if _, ok := s.engine.Store.Board(boardID); !ok {
		s.writeError(w, fmt.Errorf("board %s: %w", boardID, models.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Store.ViewsForBoard(boardID))
}

// handleProject returns the view's projection. A q parameter narrows the
// cards with a fuzzy search; groups are rebuilt from the narrowed list.
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Project(mux.Vars(r)["view"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := newViewResponse(res)
	if q := r.URL.Query().Get("q"); q != "" {
		out.Cards = filter.Search(res.CardPages, q, res.Board.CardProperties)
		keep := make(map[string]bool, len(out.Cards))
		for _, cp := range out.Cards {
			keep[cp.Card.ID] = true
		}
		for i := range out.Visible {
			out.Visible[i].CardIDs = keepIDs(out.Visible[i].CardIDs, keep)
		}
		for i := range out.Hidden {
			out.Hidden[i].CardIDs = keepIDs(out.Hidden[i].CardIDs, keep)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func keepIDs(ids []string, keep map[string]bool) []string {
	out := ids[:0]
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

type addCardRequest struct {
	Title       string         `json:"title"`
	GroupID     *string        `json:"groupId"`
	Properties  map[string]any `json:"properties"`
	InsertFirst bool           `json:"insertFirst"`
	IsTemplate  bool           `json:"isTemplate"`
	Show        bool           `json:"show"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var req addCardRequest
	if !decode(w, r, &req) {
		return
	}
	card, err := s.engine.AddCard(r.Context(), mux.Vars(r)["view"], projection.AddCardOptions{
		Title:         req.Title,
		GroupOptionID: req.GroupID,
		Properties:    req.Properties,
		InsertFirst:   req.InsertFirst,
		IsTemplate:    req.IsTemplate,
		Show:          req.Show,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleDeleteCards(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.DeleteCards(r.Context(), req.IDs); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value any `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	if err := s.ops.SetCardProperty(r.Context(), vars["card"], vars["property"], req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHideGroup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.respond(w, s.ops.HideGroup(r.Context(), vars["view"], optionParam(vars["option"])))
}

func (s *Server) handleShowGroup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.respond(w, s.ops.UnhideGroup(r.Context(), vars["view"], optionParam(vars["option"])))
}

// optionParam maps the path placeholder of the empty group back to "".
func optionParam(v string) string {
	if v == "_" {
		return models.EmptyGroupID
	}
	return v
}

func (s *Server) handleGroupBy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID string `json:"propertyId"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.ops.ChangeGroupBy(r.Context(), mux.Vars(r)["view"], req.PropertyID))
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req []models.SortOption
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.ops.ChangeSortOptions(r.Context(), mux.Vars(r)["view"], req))
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req models.FilterGroup
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.ops.ChangeFilter(r.Context(), mux.Vars(r)["view"], req))
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardID string `json:"cardId"`
		Index  int    `json:"index"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.ops.ReorderCard(r.Context(), mux.Vars(r)["view"], req.CardID, req.Index))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	desc, err := s.engine.Undo(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"undone": desc})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	desc, err := s.engine.Redo(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redone": desc})
}

func (s *Server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.engine.Project(mux.Vars(r)["view"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		table := export.BuildTable(res, s.engine.Store.Members())
		filename := fmt.Sprintf("%s.%s", res.Board.Title, format)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		switch format {
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			err = export.WriteCSV(w, table)
		default:
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			err = export.WriteXLSX(w, table)
		}
		if err != nil {
			s.logger.Error("export failed", zap.String("view", res.View.ID), zap.Error(err))
		}
	}
}

// handleWebSocket upgrades the connection and registers it with the hub. A
// board parameter limits events to that board.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(s.hub, conn, r.URL.Query().Get("board"))
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var perr *models.PersistenceError
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrMissingContext):
		return http.StatusNotFound
	case errors.Is(err, models.ErrReadOnlySource),
		errors.Is(err, undo.ErrNothingToUndo), errors.Is(err, undo.ErrNothingToRedo):
		return http.StatusConflict
	case errors.As(err, &perr):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
