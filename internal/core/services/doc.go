// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on domain and ports; every external system is
// injected through a driven interface.
package services
