package handlers

import "net/http"

// SearchUsers matches users by name or email, excluding the caller.
func (a *API) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}

	users, err := a.Users.Search(r.Context(), userID, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
