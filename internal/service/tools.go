package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stackline/foreman/internal/domain/action"
	"github.com/stackline/foreman/internal/domain/tool"
)

// DefaultTools returns the full tool catalog wired into a registry.
func DefaultTools() []Handler {
	return []Handler{
		&getProjectStatusTool{},
		&listContactsTool{},
		&createActionRecordTool{},
		&setFutureReminderTool{},
		&updateCRMFieldTool{},
		&appendCRMNoteTool{},
		&detectDecisionsTool{},
		&escalateTool{},
	}
}

// createRecord is the shared path for every record-producing tool. It applies
// the per-run dedupe check before asking the action service for a row.
func createRecord(ctx context.Context, env *Env, req CreateActionRequest) (tool.Result, error) {
	if env.MarkAction(action.DedupeKey(req.Type, req.Payload)) {
		return tool.NoAction(fmt.Sprintf("an identical %s action was already created in this run", req.Type)), nil
	}
	req.ProjectID = env.ProjectID
	req.RunID = env.RunID
	if req.SenderID == "" {
		req.SenderID = env.CallerID
	}
	rec, err := env.Actions.Create(ctx, req)
	if err != nil {
		return tool.Result{}, fmt.Errorf("create %s record: %w", req.Type, err)
	}
	out, _ := json.Marshal(map[string]any{
		"action_id": rec.ID,
		"type":      rec.Type,
		"status":    rec.Status,
	})
	return tool.Success(string(out)), nil
}

// get_project_status

type getProjectStatusTool struct{}

func (t *getProjectStatusTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "get_project_status",
		Description: "Get the current status of the project: name, stage, address, next scheduled check-in, and the number of actions awaiting approval.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	}
}

func (t *getProjectStatusTool) Execute(ctx context.Context, env *Env, _ json.RawMessage) (tool.Result, error) {
	p, err := env.Store.GetProject(ctx, env.ProjectID)
	if err != nil {
		return tool.Result{}, fmt.Errorf("get project: %w", err)
	}
	pending, err := env.Store.ListActionRecords(ctx, env.ProjectID, action.StatusPending)
	if err != nil {
		return tool.Result{}, fmt.Errorf("list pending actions: %w", err)
	}

	summary := map[string]any{
		"name":            p.Name,
		"status":          p.Status,
		"address":         p.Address,
		"pending_actions": len(pending),
	}
	if !p.NextCheckAt.IsZero() {
		summary["next_check_at"] = p.NextCheckAt.Format(time.RFC3339)
	}
	out, _ := json.Marshal(summary)
	return tool.Success(string(out)), nil
}

// list_contacts

type listContactsTool struct{}

func (t *listContactsTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "list_contacts",
		Description: "List the contacts linked to this project with their names and roles.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	}
}

func (t *listContactsTool) Execute(ctx context.Context, env *Env, _ json.RawMessage) (tool.Result, error) {
	contacts, err := env.Store.ListContactsByProject(ctx, env.ProjectID)
	if err != nil {
		return tool.Result{}, fmt.Errorf("list contacts: %w", err)
	}

	type entry struct {
		Name  string `json:"name"`
		Role  string `json:"role"`
		Email string `json:"email,omitempty"`
	}
	entries := make([]entry, 0, len(contacts))
	for _, c := range contacts {
		entries = append(entries, entry{Name: c.Name, Role: c.Role, Email: c.Email})
	}
	out, _ := json.Marshal(entries)
	return tool.Success(string(out)), nil
}

// create_action_record

type createActionRecordTool struct{}

func (t *createActionRecordTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "create_action_record",
		Description: "Propose a side effect for human approval: a message to a stakeholder or a CRM data update. The recipient may be a name, a role (e.g. \"the PM\"), or an email address.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"action_type": {"type": "string", "enum": ["message", "data_update", "crm_write"], "description": "Kind of side effect to propose"},
				"recipient": {"type": "string", "description": "Who the action is addressed to: name, role, or email"},
				"content": {"type": "string", "description": "Message body or a description of the data change"},
				"requires_approval": {"type": "boolean", "description": "Set false only for low-risk informational actions", "default": true}
			},
			"required": ["action_type", "content"]
		}`),
	}
}

func (t *createActionRecordTool) Execute(ctx context.Context, env *Env, args json.RawMessage) (tool.Result, error) {
	var in struct {
		ActionType       string `json:"action_type"`
		Recipient        string `json:"recipient"`
		Content          string `json:"content"`
		RequiresApproval *bool  `json:"requires_approval"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return tool.Errorf("invalid arguments: " + err.Error()), nil
	}

	actionType := action.Type(in.ActionType)
	switch actionType {
	case action.TypeMessage, action.TypeDataUpdate, action.TypeCRMWrite:
	case "":
		actionType = action.TypeMessage
	default:
		return tool.Errorf(fmt.Sprintf("unknown action_type %q", in.ActionType)), nil
	}
	if strings.TrimSpace(in.Content) == "" {
		return tool.Errorf("content is required"), nil
	}

	var recipientID string
	if in.Recipient != "" {
		id, err := env.Resolver.Resolve(ctx, in.Recipient, env.ProjectID)
		if err != nil {
			return tool.Result{}, fmt.Errorf("resolve recipient: %w", err)
		}
		recipientID = id
	}

	// The raw recipient text survives in the payload so an operator can fix
	// an unresolved addressee by hand.
	payload, _ := json.Marshal(map[string]any{
		"content":       in.Content,
		"recipient_raw": in.Recipient,
	})

	requiresApproval := true
	if in.RequiresApproval != nil {
		requiresApproval = *in.RequiresApproval
	}

	return createRecord(ctx, env, CreateActionRequest{
		Type:             actionType,
		Payload:          payload,
		RequiresApproval: requiresApproval,
		RecipientID:      recipientID,
	})
}

// set_future_reminder

type setFutureReminderTool struct{}

func (t *setFutureReminderTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "set_future_reminder",
		Description: "Schedule the next check-in for this project N days from now. Executes immediately, no approval needed.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"days": {"type": "integer", "minimum": 1, "description": "Number of days until the next check-in"},
				"reason": {"type": "string", "description": "Why the check-in is scheduled"}
			},
			"required": ["days"]
		}`),
	}
}

func (t *setFutureReminderTool) Execute(ctx context.Context, env *Env, args json.RawMessage) (tool.Result, error) {
	var in struct {
		Days   int    `json:"days"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return tool.Errorf("invalid arguments: " + err.Error()), nil
	}
	if in.Days < 1 {
		return tool.Errorf("days must be at least 1"), nil
	}

	remindAt := time.Now().UTC().AddDate(0, 0, in.Days)
	payload, _ := json.Marshal(map[string]any{
		"days":      in.Days,
		"reason":    in.Reason,
		"remind_at": remindAt.Format(time.RFC3339),
	})

	return createRecord(ctx, env, CreateActionRequest{
		Type:             action.TypeSetFutureReminder,
		Payload:          payload,
		RequiresApproval: false,
		RemindAt:         remindAt,
	})
}

// update_crm_field

type updateCRMFieldTool struct{}

func (t *updateCRMFieldTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "update_crm_field",
		Description: "Propose updating a single CRM field on this project. Requires human approval before anything is written.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"field": {"type": "string", "description": "CRM field name"},
				"value": {"type": "string", "description": "New value"}
			},
			"required": ["field", "value"]
		}`),
	}
}

func (t *updateCRMFieldTool) Execute(ctx context.Context, env *Env, args json.RawMessage) (tool.Result, error) {
	var in struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return tool.Errorf("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Field) == "" {
		return tool.Errorf("field is required"), nil
	}

	payload, _ := json.Marshal(map[string]any{"field": in.Field, "value": in.Value})
	return createRecord(ctx, env, CreateActionRequest{
		Type:             action.TypeDataUpdate,
		Payload:          payload,
		RequiresApproval: true,
	})
}

// append_crm_note

type appendCRMNoteTool struct{}

func (t *appendCRMNoteTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "append_crm_note",
		Description: "Propose appending a note to the project's CRM record. Requires human approval.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"note": {"type": "string", "description": "Note body"}
			},
			"required": ["note"]
		}`),
	}
}

func (t *appendCRMNoteTool) Execute(ctx context.Context, env *Env, args json.RawMessage) (tool.Result, error) {
	var in struct {
		Note string `json:"note"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return tool.Errorf("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Note) == "" {
		return tool.Errorf("note is required"), nil
	}

	payload, _ := json.Marshal(map[string]any{"note": in.Note})
	return createRecord(ctx, env, CreateActionRequest{
		Type:             action.TypeCRMAppendNote,
		Payload:          payload,
		RequiresApproval: true,
	})
}

// detect_decisions

// decisionMarkers are the phrases, lowercased, that flag a note as carrying
// a stakeholder decision.
var decisionMarkers = []string{
	"decided", "decision", "approved", "go with", "going with",
	"confirmed", "agreed", "selected", "signed off", "green light",
}

type detectDecisionsTool struct{}

func (t *detectDecisionsTool) CallLimit() int { return 1 }

func (t *detectDecisionsTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "detect_decisions",
		Description: "Scan recent project notes for decision language and return the notes that record a stakeholder decision. May be called at most once per run.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "integer", "minimum": 1, "maximum": 50, "description": "How many recent notes to scan", "default": 20}
			},
			"required": []
		}`),
	}
}

func (t *detectDecisionsTool) Execute(ctx context.Context, env *Env, args json.RawMessage) (tool.Result, error) {
	var in struct {
		Limit int `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return tool.Errorf("invalid arguments: " + err.Error()), nil
		}
	}
	if in.Limit <= 0 || in.Limit > 50 {
		in.Limit = 20
	}

	notes, err := env.Store.ListProjectNotes(ctx, env.ProjectID, in.Limit)
	if err != nil {
		return tool.Result{}, fmt.Errorf("list project notes: %w", err)
	}

	type finding struct {
		NoteID  string `json:"note_id"`
		Excerpt string `json:"excerpt"`
		Marker  string `json:"marker"`
	}
	var findings []finding
	for _, n := range notes {
		body := strings.ToLower(n.Body)
		for _, marker := range decisionMarkers {
			if strings.Contains(body, marker) {
				findings = append(findings, finding{
					NoteID:  n.ID,
					Excerpt: truncate(n.Body, 200),
					Marker:  marker,
				})
				break
			}
		}
	}

	if len(findings) == 0 {
		return tool.NoAction("no decision language found in recent notes"), nil
	}
	out, _ := json.Marshal(findings)
	return tool.Success(string(out)), nil
}

// escalate

type escalateTool struct{}

func (t *escalateTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        "escalate",
		Description: "Raise an issue to the project owner for human attention. Creates a pending escalation that must be approved before it is delivered.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"reason": {"type": "string", "description": "What needs attention and why"},
				"severity": {"type": "string", "enum": ["low", "medium", "high"], "default": "medium"}
			},
			"required": ["reason"]
		}`),
	}
}

func (t *escalateTool) Execute(ctx context.Context, env *Env, args json.RawMessage) (tool.Result, error) {
	var in struct {
		Reason   string `json:"reason"`
		Severity string `json:"severity"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return tool.Errorf("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Reason) == "" {
		return tool.Errorf("reason is required"), nil
	}
	if in.Severity == "" {
		in.Severity = "medium"
	}

	p, err := env.Store.GetProject(ctx, env.ProjectID)
	if err != nil {
		return tool.Result{}, fmt.Errorf("get project: %w", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"reason":   in.Reason,
		"severity": in.Severity,
	})
	return createRecord(ctx, env, CreateActionRequest{
		Type:             action.TypeEscalation,
		Payload:          payload,
		RequiresApproval: true,
		RecipientID:      p.OwnerID,
	})
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
