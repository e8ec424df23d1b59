package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board id. Val: YAML applied over Default().
// -----------------------------------------------------------------------------

const cfgBenchRev1 = `
log_level: info
sense:
  shunt_ohms: 0.010
  max_current_a: 5.0
readout:
  hz: 5
channels:
  a: {voltage: 5.0, current: 1.0}
  b: {voltage: 3.3, current: 1.0}
`

// Host simulator: faster readout and debug logging.
const cfgSim = `
log_level: debug
readout:
  hz: 2
converter:
  startup_ms: 10
`

var embeddedConfigs = map[string][]byte{
	"bench-rev1": []byte(cfgBenchRev1),
	"sim":        []byte(cfgSim),
}
