package control

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"krypt.co/locus/common/transport"
	"krypt.co/locus/common/version"
	"krypt.co/locus/daemon/center"
	"krypt.co/locus/daemon/objects"

	. "krypt.co/locus/common/protocol"
)

// ControlServer exposes a center over HTTP. The peer surface is what other
// centers reach over TCP; the admin surface adds host-internal operations
// and is only served on the local unix socket.
type ControlServer struct {
	center *center.Center
	log    *logging.Logger
}

func NewControlServer(c *center.Center, log *logging.Logger) *ControlServer {
	for typeName, factory := range objects.Factories() {
		c.RegisterFactory(typeName, factory)
	}
	return &ControlServer{center: c, log: log}
}

func (cs *ControlServer) Center() *center.Center {
	return cs.center
}

func (cs *ControlServer) PeerMux() *http.ServeMux {
	httpMux := http.NewServeMux()
	httpMux.HandleFunc(transport.CENTER_PATH, cs.handleCenter)
	httpMux.HandleFunc("/version", cs.handleVersion)
	httpMux.HandleFunc("/ping", cs.handlePing)
	httpMux.Handle("/metrics", promhttp.Handler())
	return httpMux
}

func (cs *ControlServer) AdminMux() *http.ServeMux {
	httpMux := cs.PeerMux()
	httpMux.HandleFunc("/objects", cs.handleObjects)
	httpMux.HandleFunc("/invoke", cs.handleInvoke)
	httpMux.HandleFunc("/migrate", cs.handleMigrate)
	httpMux.HandleFunc("/peers", cs.handlePeers)
	return httpMux
}

func (cs *ControlServer) HandlePeerHTTP(listener net.Listener) (err error) {
	err = http.Serve(listener, cs.PeerMux())
	return
}

func (cs *ControlServer) HandleControlHTTP(listener net.Listener) (err error) {
	err = http.Serve(listener, cs.AdminMux())
	return
}

func (cs *ControlServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(version.CURRENT_VERSION.String()))
}

func (cs *ControlServer) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// route a peer-facing request to the center
func (cs *ControlServer) handleCenter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var request Request
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		cs.log.Error("decoding center request:", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	cs.writeJSON(w, cs.center.Handle(request))
}

func (cs *ControlServer) handleObjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cs.handleGetObjects(w, r)
	case http.MethodPut:
		cs.handlePutObject(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (cs *ControlServer) handleGetObjects(w http.ResponseWriter, r *http.Request) {
	infos := []ObjectInfo{}
	for _, id := range cs.center.GetAllLocalObjectIDs() {
		ref, ok := cs.center.Reference(id)
		if !ok {
			continue
		}
		name, _ := ref.DisplayName()
		infos = append(infos, ObjectInfo{ObjectID: id, TypeName: ref.TypeName(), DisplayName: name})
	}
	cs.writeJSON(w, infos)
}

// create a built-in object and register it here
func (cs *ControlServer) handlePutObject(w http.ResponseWriter, r *http.Request) {
	var create CreateObjectRequest
	err := json.NewDecoder(r.Body).Decode(&create)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	object, err := objects.New(create.Type, create.Name)
	if err != nil {
		cs.writeError(w, http.StatusBadRequest, err)
		return
	}
	id := create.ObjectID
	if id == "" {
		id = NewObjectID()
	}
	err = cs.center.RegisterLocalObject(id, object)
	if err != nil {
		cs.writeError(w, http.StatusInternalServerError, err)
		return
	}
	cs.writeJSON(w, CreateObjectResponse{ObjectID: id, Host: cs.center.Self()})
}

// faults travel inside the Response so the caller gets typed errors back
func (cs *ControlServer) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var invoke InvokeRequest
	err := json.NewDecoder(r.Body).Decode(&invoke)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	response := Response{Version: version.CURRENT_VERSION}
	result, err := cs.center.ExecuteMethodOut(invoke.Operation, invoke.Args, invoke.ObjectID)
	if err != nil {
		response.Error = ToWire(err)
	} else {
		response.ExecuteResponse = &ExecuteResponse{Result: result}
	}
	cs.writeJSON(w, response)
}

func (cs *ControlServer) handleMigrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var migrate MigrateRequest
	err := json.NewDecoder(r.Body).Decode(&migrate)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	dest, err := ParseDestination(migrate.Destination)
	if err != nil {
		cs.writeError(w, http.StatusBadRequest, err)
		return
	}
	err = cs.center.Migrate(migrate.ObjectID, dest)
	if err != nil {
		var unknownLocal *UnknownLocalObjectError
		if errors.As(err, &unknownLocal) {
			cs.writeError(w, http.StatusNotFound, err)
			return
		}
		cs.writeError(w, http.StatusInternalServerError, err)
		return
	}
	host, _ := cs.center.GetLocationOfObject(migrate.ObjectID)
	cs.writeJSON(w, host)
}

func (cs *ControlServer) handlePeers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cs.writeJSON(w, cs.center.Peers())
	case http.MethodPost:
		var join JoinRequest
		err := json.NewDecoder(r.Body).Decode(&join)
		if err != nil || join.Address == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		peer, err := cs.center.Join(join.Address)
		if err != nil {
			cs.writeError(w, http.StatusBadGateway, err)
			return
		}
		cs.writeJSON(w, peer)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (cs *ControlServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		cs.log.Error(err)
	}
}

func (cs *ControlServer) writeError(w http.ResponseWriter, status int, err error) {
	cs.log.Error(err)
	w.WriteHeader(status)
	w.Write([]byte(err.Error()))
}
