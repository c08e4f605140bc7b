package discovery

// DefaultPaths lists the well-known locations where APIs publish their
// spec documents, most common first. Probe order is list order, so the
// list doubles as the preference order.
var DefaultPaths = []string{
	"/swagger.json",
	"/v2/swagger.json",
	"/v3/swagger.json",
	"/openapi.json",
	"/v3/api-docs",
	"/api-docs",
	"/docs",
	"/api/docs",
	"/.well-known/openapi.json",
	"/api/swagger.json",
	"/api/openapi.json",
	"/v1/swagger.json",
	"/api/v1/swagger.json",
	"/api/",
}
