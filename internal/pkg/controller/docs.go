// Package controller implements a simulated motion controller for tests and
// local development. It listens on a plain TCP port, emits periodic status
// frames, answers every received command line with an ok, and tracks a naive
// position so jogs and rapids visibly move the reported coordinates.
//
// The simulation is deliberately shallow: it understands just enough of
// G0/G1, $J= jogs and $H homing to produce plausible DRO traffic. It is not
// a G-Code interpreter. Only three axes (X, Y, Z) are modelled; commands
// addressing other axes are acked but do not move anything.
package controller
