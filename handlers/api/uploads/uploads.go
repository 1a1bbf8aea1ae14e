package uploads

import (
	"io"
	"net/http"

	"pdfsync-server/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const maxUploadBytes = 50 << 20 // 50 MiB multipart memory budget

type (
	// RoomRegistry is the slice of the room registry the upload path needs.
	RoomRegistry interface {
		Get(id string) (core.Room, bool)
		SetDocument(id, locator string) bool
	}

	UploadResponse struct {
		PDFURL string `json:"pdfUrl"`
	}
)

// HandleUpload accepts a multipart document upload for an existing room,
// stores the blob, points the room at it (which resets the page position)
// and broadcasts the new document to everyone in the room.
func HandleUpload(store core.DocumentStore, registry RoomRegistry, notifier core.RoomNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			logrus.WithField("error", err).Warn("Failed to parse upload form")
			http.Error(w, "Invalid upload request", http.StatusBadRequest)
			return
		}

		roomID := r.FormValue("roomId")
		if _, ok := registry.Get(roomID); !ok {
			logrus.WithField("room_id", roomID).Warn("Upload for unknown room rejected")
			http.Error(w, "Room does not exist", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("pdf")
		if err != nil {
			logrus.WithField("room_id", roomID).Warn("Upload without a pdf file rejected")
			http.Error(w, "Missing pdf file", http.StatusBadRequest)
			return
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("Failed to close uploaded file")
			}
		}()

		doc := &core.Document{}
		if _, err := io.Copy(&doc.Data, file); err != nil {
			logrus.WithField("error", err).Error("Failed to read uploaded file")
			http.Error(w, "Failed to read upload", http.StatusInternalServerError)
			return
		}

		id, err := store.Create(r.Context(), doc)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to save uploaded document")
			http.Error(w, "Failed to save document", http.StatusInternalServerError)
			return
		}

		locator := "/uploads/" + id
		if !registry.SetDocument(roomID, locator) {
			http.Error(w, "Room does not exist", http.StatusBadRequest)
			return
		}

		room, _ := registry.Get(roomID)
		notifier.DocumentAssigned(roomID, locator, room.CurrentPage)

		logrus.WithFields(logrus.Fields{
			"room_id":     roomID,
			"document_id": id,
			"filename":    header.Filename,
			"size":        doc.Data.Len(),
		}).Info("Document uploaded and assigned to room")

		render.JSON(w, r, UploadResponse{PDFURL: locator})
	}
}

// HandleGet serves a stored document back by id.
func HandleGet(store core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		doc, err := store.FindID(r.Context(), id)
		if err != nil {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		if _, err := w.Write(doc.Data.Bytes()); err != nil {
			logrus.WithField("document_id", id).WithError(err).Warn("Failed to write document response")
		}
	}
}
