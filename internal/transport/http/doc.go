// Package http implements the HTTP handlers of the dataset dashboard.
// Handlers stay thin: they parse and validate the request, call a service
// and render the result.
//
// Every dataset route answers with
//
//	{"status": "success", "data": {...}}
//
// and every failure with an RFC 7807 problem document:
//
//	{
//	    "type": "/errors/schema-mismatch",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "column \"Fare\" not in table",
//	    "instance": "/api/dataset/aggregate"
//	}
//
// The dashboard is read only. POST routes carry query bodies and never
// modify the loaded table.
package http
