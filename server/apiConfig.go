package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tseten14/cvscan/pkg/www"
	"github.com/tseten14/cvscan/server/runsdb"
)

func (s *Server) httpConfigGetVariables(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	values, err := s.RunsDB.ListVariables()
	www.Check(err)
	www.SendJSON(w, values)
}

func (s *Server) httpConfigGetVariable(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	key := runsdb.VariableKey(params.ByName("key"))
	www.CheckClient(runsdb.ValidateVariable(key, ""))
	value, err := s.RunsDB.GetVariable(key)
	www.Check(err)
	www.SendText(w, value)
}

// httpConfigSetVariable stores a variable. The value comes from the "value"
// query parameter, or the request body if the parameter is absent.
// Variables are read at startup, so a change only takes effect after a restart.
func (s *Server) httpConfigSetVariable(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	key := runsdb.VariableKey(params.ByName("key"))
	value := ""
	if r.URL.Query().Has("value") {
		value = r.URL.Query().Get("value")
	} else {
		value = string(www.ReadLimited(w, r, 4096))
	}
	www.CheckClient(runsdb.ValidateVariable(key, value))
	www.Check(s.RunsDB.SetVariable(key, value))
	s.Log.Infof("Set variable %v: %v", key, value)
	www.SendOK(w)
}
