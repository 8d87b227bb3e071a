package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tsinling0525/scriptflow/engine"
	"github.com/Tsinling0525/scriptflow/format/graphdoc"
	"github.com/Tsinling0525/scriptflow/infra"
	"github.com/Tsinling0525/scriptflow/model"
)

// APIResponse represents the API response
type APIResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Helper function to send JSON response
func sendResponse(c *gin.Context, statusCode int, success bool, data map[string]any, errorMsg string) {
	response := APIResponse{Success: success, Data: data, Error: errorMsg}
	c.JSON(statusCode, response)
}

func sendSuccess(c *gin.Context, data map[string]any) {
	sendResponse(c, http.StatusOK, true, data, "")
}
func sendError(c *gin.Context, statusCode int, errorMsg string) {
	sendResponse(c, statusCode, false, nil, errorMsg)
}

// sendErr maps domain errors to HTTP status codes.
func sendErr(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, infra.ErrInstanceNotFound),
		errors.Is(err, infra.ErrGraphNotFound),
		errors.Is(err, infra.ErrNoEntity),
		errors.Is(err, model.ErrNodeNotFound):
		code = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidConnection),
		errors.Is(err, model.ErrUnknownNodeType),
		errors.Is(err, infra.ErrInvalidGraphName):
		code = http.StatusBadRequest
	case errors.Is(err, model.ErrNodeNotDeletable):
		code = http.StatusConflict
	case errors.Is(err, engine.ErrRunnerStopped):
		code = http.StatusGone
	}
	sendError(c, code, err.Error())
}

type handlers struct {
	mgr    *infra.InstanceManager
	graphs infra.GraphStore
}

// NewRouter builds the Gin router with routes and middleware
func NewRouter(mgr *infra.InstanceManager, graphs infra.GraphStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	// CORS
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := &handlers{mgr: mgr, graphs: graphs}
	r.GET("/health", handleHealth)
	r.GET("/node-types", h.nodeTypes)

	r.GET("/graphs", h.listGraphs)
	r.GET("/graphs/:name", h.getGraph)
	r.PUT("/graphs/:name", h.putGraph)
	r.DELETE("/graphs/:name", h.deleteGraph)

	r.POST("/instances", h.createInstance)
	r.GET("/instances", h.listInstances)
	r.GET("/instances/:id", h.getInstance)
	r.DELETE("/instances/:id", h.stopInstance)
	r.GET("/instances/:id/logs", h.instanceLogs)
	r.POST("/instances/:id/save", h.saveInstance)
	r.POST("/instances/:id/nodes", h.addNode)
	r.PUT("/instances/:id/nodes/:node", h.updateNode)
	r.DELETE("/instances/:id/nodes/:node", h.deleteNode)
	r.POST("/instances/:id/connections", h.connect)
	r.DELETE("/instances/:id/connections", h.disconnect)
	r.POST("/instances/:id/targets", h.bindTarget)
	r.POST("/instances/:id/messages", h.deliver)

	r.POST("/entities", h.spawnEntity)
	r.GET("/entities/:id", h.getEntity)
	r.POST("/entities/:id/messages", h.sendToEntity)
	return r
}

// Handlers
func handleHealth(c *gin.Context) {
	sendSuccess(c, map[string]any{"status": "healthy", "timestamp": time.Now().Unix(), "version": "1.0.0"})
}

func (h *handlers) nodeTypes(c *gin.Context) {
	sendSuccess(c, map[string]any{"types": h.mgr.Registry().Describe()})
}

func (h *handlers) listGraphs(c *gin.Context) {
	names, err := h.graphs.List(c.Request.Context())
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"graphs": names})
}

func (h *handlers) getGraph(c *gin.Context) {
	doc, err := h.graphs.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"graph": doc})
}

func (h *handlers) putGraph(c *gin.Context) {
	var doc graphdoc.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	doc.Name = c.Param("name")
	// reject documents that would not load
	_, rep, err := graphdoc.Build(doc, h.mgr.Registry())
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.graphs.Put(c.Request.Context(), doc); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"name": doc.Name, "report": rep})
}

func (h *handlers) deleteGraph(c *gin.Context) {
	if err := h.graphs.Delete(c.Request.Context(), c.Param("name")); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"deleted": c.Param("name")})
}

// CreateRequest starts an instance from a stored graph or an inline
// document. Entity overrides the document's bound entity.
type CreateRequest struct {
	Graph    string             `json:"graph"`
	Document *graphdoc.Document `json:"document"`
	Entity   *uint64            `json:"entity"`
}

func (h *handlers) createInstance(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	var doc graphdoc.Document
	switch {
	case req.Document != nil:
		doc = *req.Document
	case req.Graph != "":
		d, err := h.graphs.Get(c.Request.Context(), req.Graph)
		if err != nil {
			sendErr(c, err)
			return
		}
		doc = d
	default:
		sendError(c, http.StatusBadRequest, "either graph or document is required")
		return
	}
	if req.Entity != nil {
		doc.Entity = req.Entity
	}
	inst, err := h.mgr.Create(doc)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	sendSuccess(c, map[string]any{"id": inst.ID, "name": inst.Name, "report": inst.Report})
}

func summary(inst *infra.Instance) map[string]any {
	out := map[string]any{"id": inst.ID, "name": inst.Name, "createdAt": inst.CreatedAt}
	if inst.Entity != nil {
		out["entity"] = uint64(*inst.Entity)
	}
	return out
}

func (h *handlers) listInstances(c *gin.Context) {
	list := h.mgr.List()
	out := make([]map[string]any, 0, len(list))
	for _, inst := range list {
		out = append(out, summary(inst))
	}
	sendSuccess(c, map[string]any{"instances": out})
}

func (h *handlers) snapshot(c *gin.Context) (*engine.Snapshot, bool) {
	res, err := h.mgr.Do(c.Request.Context(), c.Param("id"), engine.TakeSnapshot{})
	if err != nil {
		sendErr(c, err)
		return nil, false
	}
	return res.Snapshot, true
}

func (h *handlers) getInstance(c *gin.Context) {
	inst, ok := h.mgr.Get(c.Param("id"))
	if !ok {
		sendErr(c, infra.ErrInstanceNotFound)
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	nodes := make(map[string]string, len(snap.Nodes))
	for id, st := range snap.Nodes {
		nodes[strconv.FormatInt(int64(id), 10)] = st.String()
	}
	data := summary(inst)
	data["status"] = snap.Status.String()
	data["tick"] = snap.Tick
	data["inbox"] = snap.Inbox
	data["nodes"] = nodes
	data["graph"] = graphdoc.FromGraph(snap.Graph)
	data["report"] = inst.Report
	sendSuccess(c, data)
}

func (h *handlers) stopInstance(c *gin.Context) {
	if err := h.mgr.Stop(c.Param("id")); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"stopped": c.Param("id")})
}

func (h *handlers) instanceLogs(c *gin.Context) {
	logs, err := h.mgr.Logs(c.Param("id"))
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"logs": logs})
}

// saveInstance stores the instance's live graph, edits included.
func (h *handlers) saveInstance(c *gin.Context) {
	inst, ok := h.mgr.Get(c.Param("id"))
	if !ok {
		sendErr(c, infra.ErrInstanceNotFound)
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	doc := graphdoc.FromGraph(snap.Graph)
	if inst.Entity != nil {
		e := uint64(*inst.Entity)
		doc.Entity = &e
	}
	if err := h.graphs.Put(c.Request.Context(), doc); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"name": doc.Name})
}

// NodeEditRequest is the editor's node form.
type NodeEditRequest struct {
	Type     string         `json:"type"`
	Position model.Vector2  `json:"position"`
	Settings map[string]any `json:"settings"`
}

func (h *handlers) edit(c *gin.Context, node model.NodeID) {
	var req NodeEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	res, err := h.mgr.Do(c.Request.Context(), c.Param("id"), engine.ApplyNodeEdit{
		Node:     node,
		Type:     req.Type,
		Position: req.Position,
		Settings: req.Settings,
	})
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"node": int64(res.Node), "dropped": res.Dropped})
}

func nodeParam(c *gin.Context) (model.NodeID, bool) {
	n, err := strconv.ParseInt(c.Param("node"), 10, 64)
	if err != nil || n < 0 {
		sendError(c, http.StatusBadRequest, "invalid node id "+c.Param("node"))
		return model.InvalidNodeID, false
	}
	return model.NodeID(n), true
}

func (h *handlers) addNode(c *gin.Context) { h.edit(c, model.InvalidNodeID) }

func (h *handlers) updateNode(c *gin.Context) {
	if id, ok := nodeParam(c); ok {
		h.edit(c, id)
	}
}

func (h *handlers) deleteNode(c *gin.Context) {
	id, ok := nodeParam(c)
	if !ok {
		return
	}
	res, err := h.mgr.Do(c.Request.Context(), c.Param("id"), engine.DeleteNode{Node: id})
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"node": int64(id), "removedConnections": len(res.Removed)})
}

func bindConnection(c *gin.Context) (model.PinRef, model.PinRef, bool) {
	var req graphdoc.Connection
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return model.PinRef{}, model.PinRef{}, false
	}
	from := model.PinRef{Node: model.NodeID(req.From.Node), Pin: req.From.Pin}
	to := model.PinRef{Node: model.NodeID(req.To.Node), Pin: req.To.Pin}
	return from, to, true
}

func (h *handlers) connect(c *gin.Context) {
	from, to, ok := bindConnection(c)
	if !ok {
		return
	}
	if _, err := h.mgr.Do(c.Request.Context(), c.Param("id"), engine.Connect{From: from, To: to}); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"connected": true})
}

func (h *handlers) disconnect(c *gin.Context) {
	from, to, ok := bindConnection(c)
	if !ok {
		return
	}
	res, err := h.mgr.Do(c.Request.Context(), c.Param("id"), engine.Disconnect{From: from, To: to})
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"removed": res.Dropped})
}

type TargetRequest struct {
	Node   int64  `json:"node"`
	Pin    int    `json:"pin"`
	Entity uint64 `json:"entity"`
}

func (h *handlers) bindTarget(c *gin.Context) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	cmd := engine.BindTarget{Pin: model.PinRef{Node: model.NodeID(req.Node), Pin: req.Pin}, Entity: model.EntityID(req.Entity)}
	if _, err := h.mgr.Do(c.Request.Context(), c.Param("id"), cmd); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"bound": true})
}

// bindMessage reads a script message leniently: a body that is not a
// message yields an empty one, which is rejected.
func bindMessage(c *gin.Context) (model.ScriptMessage, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return model.ScriptMessage{}, false
	}
	msg := model.ParseScriptMessage(body)
	if msg.Type.Message == "" {
		sendError(c, http.StatusBadRequest, "message name is required")
		return model.ScriptMessage{}, false
	}
	return msg, true
}

func (h *handlers) deliver(c *gin.Context) {
	msg, ok := bindMessage(c)
	if !ok {
		return
	}
	if _, err := h.mgr.Do(c.Request.Context(), c.Param("id"), engine.Deliver{Message: msg}); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"delivered": msg.String()})
}

type SpawnRequest struct {
	Name    string         `json:"name"`
	Members map[string]any `json:"members"`
}

func (h *handlers) spawnEntity(c *gin.Context) {
	var req SpawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	id := h.mgr.Entities().Spawn(req.Name, req.Members)
	sendSuccess(c, map[string]any{"id": uint64(id)})
}

func entityParam(c *gin.Context) (model.EntityID, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, "invalid entity id "+c.Param("id"))
		return 0, false
	}
	return model.EntityID(n), true
}

func (h *handlers) getEntity(c *gin.Context) {
	id, ok := entityParam(c)
	if !ok {
		return
	}
	name, members, err := h.mgr.Entities().Snapshot(id)
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"id": uint64(id), "name": name, "members": members})
}

func (h *handlers) sendToEntity(c *gin.Context) {
	id, ok := entityParam(c)
	if !ok {
		return
	}
	msg, ok := bindMessage(c)
	if !ok {
		return
	}
	if err := h.mgr.Entities().SendMessage(id, msg); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]any{"queued": msg.String()})
}
