// Package docs provides Swagger documentation for the API.
package docs

// @title IVR Dialer API
// @version 1.0
// @description Backend for IVR call campaigns: flows, contacts, campaigns and Android dialing devices
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@voxlink.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
