package websocket

import (
	"regexp"

	"pdfsync-server/rooms"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// Broadcaster exposes the room fan-out to collaborators outside the socket
// layer (the upload endpoint). It satisfies core.RoomNotifier.
type Broadcaster struct {
	srv *socketio.Server
}

// DocumentAssigned tells every connection in the room about a newly stored
// document: the locator first, then the reset page position.
func (b *Broadcaster) DocumentAssigned(roomID, locator string, page int) {
	room := socketio.Room(roomID)
	_ = b.srv.In(room).Emit("pdfUploaded", locator)
	_ = b.srv.In(room).Emit("updatePage", page)

	logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"locator": locator,
		"page":    page,
	}).Info("Document broadcast to room")
}

// SetupSocketIO wires the realtime protocol onto a socket.io server. The
// registry is the single authority for room state; every inbound event is
// translated into a registry call and a fan-out decision here.
func SetupSocketIO(registry *rooms.Registry) (*socketio.Server, *Broadcaster) {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin: []any{
			localhostOrigin,
		},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		me := string(socket.Id())
		log := logrus.WithField("connection_id", me)
		log.Debug("Client connected")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("createRoom", func(datas ...any) {
			roomID, ok := roomIDArg(datas)
			if !ok {
				log.Warn("createRoom without a room id dropped")
				return
			}

			if !registry.Create(roomID, me) {
				// Duplicate create keeps the original owner and does not
				// join the second creator.
				log.WithField("room_id", roomID).Debug("createRoom for existing room ignored")
				return
			}

			socket.Join(socketio.Room(roomID))
			log.WithField("room_id", roomID).Info("Room created, connection is owner")
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("joinRoom", func(datas ...any) {
			roomID, ok := roomIDArg(datas)
			if !ok {
				log.Warn("joinRoom without a room id dropped")
				return
			}

			// The protocol defines no rejection event; a join to an
			// unknown room is only visible in the logs.
			if !registry.Join(roomID, me) {
				log.WithField("room_id", roomID).Warn("Join to unknown room dropped")
				return
			}

			socket.Join(socketio.Room(roomID))

			room, _ := registry.Get(roomID)
			_ = socket.Emit("updatePage", room.CurrentPage)
			if room.DocumentURL != "" {
				_ = socket.Emit("pdfUploaded", room.DocumentURL)
			}

			log.WithFields(logrus.Fields{
				"room_id": roomID,
				"page":    room.CurrentPage,
			}).Info("Client joined room")
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("changePage", func(datas ...any) {
			roomID, page, ok := pageArgs(datas)
			if !ok {
				log.Warn("Malformed changePage payload dropped")
				return
			}

			if !registry.SetPage(roomID, page, me) {
				log.WithFields(logrus.Fields{
					"room_id": roomID,
					"page":    page,
				}).Warn("Page change from non-owner dropped")
				return
			}

			_ = srv.In(socketio.Room(roomID)).Emit("updatePage", page)
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("scrollPdf", func(datas ...any) {
			roomID, scrollTop, ok := scrollArgs(datas)
			if !ok {
				log.Warn("Malformed scrollPdf payload dropped")
				return
			}

			// Scroll is a high-frequency, low-stakes signal: not stored,
			// not owner-checked, relayed to everyone but the sender.
			registry.Touch(roomID)
			_ = socket.Volatile().Broadcast().To(socketio.Room(roomID)).Emit("updateScroll", scrollTop)
		})

		socket.On("disconnecting", func(datas ...any) {
			for _, currentRoom := range socket.Rooms().Keys() {
				roomID := string(currentRoom)
				if roomID == me {
					// Every socket sits in a private room named after its
					// own id; that one is not ours to track.
					continue
				}
				registry.Leave(roomID, me)
				log.WithField("room_id", roomID).Debug("Client left room")
			}
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv, &Broadcaster{srv: srv}
}
