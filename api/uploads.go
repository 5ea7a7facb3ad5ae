package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/qri-io/jsonschema"

	"github.com/homefax/homefax/internal/storage"
	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

// presignSchema guards the upload payload shape before anything touches
// object storage: a missing content type or a non-numeric size must be
// a 400, never a signed URL.
const presignSchema = `{
	"type": "object",
	"required": ["entity_type", "entity_id", "filename", "content_type", "size"],
	"properties": {
		"entity_type": {"type": "string", "enum": ["service_record", "service_request", "warranty", "message", "reminder"]},
		"entity_id": {"type": "integer", "minimum": 1},
		"filename": {"type": "string", "minLength": 1},
		"content_type": {"type": "string", "minLength": 1},
		"size": {"type": "integer", "minimum": 1, "maximum": 52428800}
	}
}`

type UploadsHandler struct {
	presigner      storage.Presigner
	recordRepo     repository.ServiceRecordRepo
	requestRepo    repository.ServiceRequestRepo
	warrantyRepo   repository.WarrantyRepo
	reminderRepo   repository.ReminderRepo
	threadRepo     repository.ThreadRepo
	connectionRepo repository.ConnectionRepo
	homeRepo       repository.HomeRepo
	schema         *jsonschema.Schema
}

func NewUploadsHandler(p storage.Presigner, rec repository.ServiceRecordRepo, req repository.ServiceRequestRepo, war repository.WarrantyRepo, rem repository.ReminderRepo, thr repository.ThreadRepo, conn repository.ConnectionRepo, home repository.HomeRepo) *UploadsHandler {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(presignSchema), rs); err != nil {
		panic("presign schema does not compile: " + err.Error())
	}
	return &UploadsHandler{
		presigner:      p,
		recordRepo:     rec,
		requestRepo:    req,
		warrantyRepo:   war,
		reminderRepo:   rem,
		threadRepo:     thr,
		connectionRepo: conn,
		homeRepo:       home,
		schema:         rs,
	}
}

type presignRequest struct {
	EntityType  string `json:"entity_type"`
	EntityID    int64  `json:"entity_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type presignResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	PublicURL string `json:"public_url"`
}

// Presign authorizes the caller against the owning entity, builds the
// deterministic object key and returns a short-lived PUT URL. Nothing
// is recorded yet; the attachment row lands on the later PATCH.
func (h *UploadsHandler) Presign(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	ctx := r.Context()
	state, err := h.schema.ValidateBytes(ctx, body)
	if err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if len(state) > 0 {
		writeError(w, &models.ValidationError{Msg: state[0].Error()})
		return
	}

	var req presignRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	key, err := h.resolveKey(r, user, req)
	if err != nil {
		writeError(w, err)
		return
	}

	url, err := h.presigner.PresignPut(ctx, key, req.ContentType, req.Size)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, presignResponse{Key: key, URL: url, PublicURL: h.presigner.PublicURL(key)}, http.StatusOK)
}

// resolveKey checks the caller may attach files to the entity and
// returns the home-scoped object key.
func (h *UploadsHandler) resolveKey(r *http.Request, user *models.User, req presignRequest) (string, error) {
	ctx := r.Context()
	name := storage.CleanFilename(req.Filename)

	switch req.EntityType {
	case "service_record":
		rec, err := h.recordRepo.GetServiceRecordByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		if rec == nil {
			return "", &models.NotFoundError{Entity: "service record"}
		}
		conn, err := h.connectionRepo.GetConnectionByID(ctx, rec.ConnectionID)
		if err != nil {
			return "", err
		}
		if conn == nil {
			return "", &models.NotFoundError{Entity: "connection"}
		}
		switch user.ID {
		case conn.ContractorID:
			if conn.Status != models.ConnectionActive {
				return "", &models.ForbiddenError{Msg: "connection is not active"}
			}
		case conn.HomeownerID:
		default:
			return "", &models.ForbiddenError{Msg: "no access to this record"}
		}
		return storage.ServiceRecordKey(rec.HomeID, rec.ID, name), nil

	case "service_request":
		sr, err := h.requestRepo.GetServiceRequestByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		if sr == nil {
			return "", &models.NotFoundError{Entity: "service request"}
		}
		if sr.HomeownerID != user.ID && sr.ContractorID != user.ID {
			return "", &models.ForbiddenError{Msg: "not a party to this request"}
		}
		return storage.ServiceRequestKey(sr.HomeID, sr.ID, name), nil

	case "warranty":
		warranty, err := h.warrantyRepo.GetWarrantyByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		if warranty == nil {
			return "", &models.NotFoundError{Entity: "warranty"}
		}
		if warranty.ContractorID != user.ID {
			home, err := h.homeRepo.GetHomeByID(ctx, warranty.HomeID)
			if err != nil {
				return "", err
			}
			if home == nil || home.OwnerID != user.ID {
				return "", &models.ForbiddenError{Msg: "no access to this warranty"}
			}
		}
		return storage.WarrantyKey(warranty.HomeID, warranty.ID, name), nil

	case "message":
		thread, err := h.threadRepo.GetThreadByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		if thread == nil {
			return "", &models.NotFoundError{Entity: "thread"}
		}
		conn, err := h.connectionRepo.GetConnectionByID(ctx, thread.ConnectionID)
		if err != nil {
			return "", err
		}
		if conn == nil {
			return "", &models.NotFoundError{Entity: "connection"}
		}
		if conn.HomeownerID != user.ID && conn.ContractorID != user.ID {
			return "", &models.ForbiddenError{Msg: "not a party to this thread"}
		}
		return storage.MessageKey(conn.HomeID, thread.ID, name), nil

	case "reminder":
		rem, err := h.reminderRepo.GetReminderByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		if rem == nil {
			return "", &models.NotFoundError{Entity: "reminder"}
		}
		home, err := h.homeRepo.GetHomeByID(ctx, rem.HomeID)
		if err != nil {
			return "", err
		}
		if home == nil || home.OwnerID != user.ID {
			return "", &models.ForbiddenError{Msg: "no access to this reminder"}
		}
		return storage.ReminderKey(rem.HomeID, rem.ID, name), nil
	}

	return "", &models.ValidationError{Msg: "unknown entity_type"}
}

type attachmentPatch struct {
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
}

func (p attachmentPatch) validate() error {
	if p.Key == "" || p.MimeType == "" || p.Size <= 0 {
		return &models.ValidationError{Msg: "key, mime_type and size are required"}
	}
	return nil
}

// PatchRecordAttachments commits uploaded files onto a service record.
func (h *UploadsHandler) PatchRecordAttachments(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	rec, err := h.recordRepo.GetServiceRecordByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec == nil {
		writeError(w, &models.NotFoundError{Entity: "service record"})
		return
	}
	if rec.ContractorID != user.ID {
		writeError(w, &models.ForbiddenError{Msg: "only the documenting contractor attaches files"})
		return
	}

	atts, err := decodeAttachments(r, rec.HomeID)
	if err != nil {
		writeError(w, err)
		return
	}
	for i := range atts {
		atts[i].ServiceRecordID = &rec.ID
	}

	if err := h.recordRepo.PatchServiceRecordAttachments(ctx, rec.ID, atts); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"attached": len(atts)}, http.StatusOK)
}

// PatchRequestAttachments commits uploaded files onto a service request.
func (h *UploadsHandler) PatchRequestAttachments(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	sr, err := h.requestRepo.GetServiceRequestByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sr == nil {
		writeError(w, &models.NotFoundError{Entity: "service request"})
		return
	}
	if sr.HomeownerID != user.ID && sr.ContractorID != user.ID {
		writeError(w, &models.ForbiddenError{Msg: "not a party to this request"})
		return
	}

	atts, err := decodeAttachments(r, sr.HomeID)
	if err != nil {
		writeError(w, err)
		return
	}
	for i := range atts {
		atts[i].ServiceRequestID = &sr.ID
	}

	if err := h.requestRepo.PatchServiceRequestAttachments(ctx, sr.ID, atts); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"attached": len(atts)}, http.StatusOK)
}

func decodeAttachments(r *http.Request, homeID int64) ([]models.Attachment, error) {
	var patches []attachmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patches); err != nil {
		return nil, &models.ValidationError{Msg: "invalid request body"}
	}
	if len(patches) == 0 {
		return nil, &models.ValidationError{Msg: "no attachments given"}
	}

	atts := make([]models.Attachment, 0, len(patches))
	for _, p := range patches {
		if err := p.validate(); err != nil {
			return nil, err
		}
		atts = append(atts, models.Attachment{
			Key:       p.Key,
			PublicURL: p.PublicURL,
			HomeID:    homeID,
			MimeType:  p.MimeType,
			Size:      p.Size,
		})
	}
	return atts, nil
}
