// Package status exposes the launcher state through the standard gRPC health
// service and polls it from the command line. The sync service turns SERVING
// once every file is in place; the game service is SERVING while the game runs.
package status
