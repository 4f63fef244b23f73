// Package http provides Laravel-compatible request and response helpers for
// the inspector's JSON endpoints.
//
// # Request
//
// Request wraps *http.Request with a fluent API mirroring Laravel's
// Illuminate\Http\Request.
//
//	req := gohttp.NewRequest(r)
//
//	// Bind a JSON body into a struct
//	var payload struct {
//	    Type string `json:"type"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	// Query string
//	from := req.Query("from", "ROOT")
//	ok   := req.Has("qualifier")
//
//	// Route params (requires Chi router)
//	name := req.RouteParam("name")
//
//	req.IsJSON()   // Content-Type: application/json
//
// # Response
//
// Response wraps http.ResponseWriter with helpers matching Laravel's
// response() helper and JsonResponse.
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)             // raw JSON with status
//	res.Success(data)               // 200 {"data": ...}
//
//	res.Fail(422, msg, details)     // {"message": msg, "error": details}
//	res.BadRequest()                // 400 {"message": "Bad Request."}
//	res.NotFound()                  // 404 {"message": "Not found."}
package http
