// Package cycle is the device operating cycle: the state machine that
// sequences joining the network, the firmware update check, sensor warm-up
// and acquisition, and reporting, then decides how to wait for the next
// cycle.
//
//	Init -> Joining -> (Updating) -> Sensing -> Reporting -> Sleeping
//	                                                           |-> Joining (loop)
//	                                                           '-> deep sleep
//	any stage error -> Faulted -> indicator -> stop, or sleep when the
//	                              fault policy allows it
//
// Every stage error is collapsed into an Outcome tagged with the failing
// Stage, logged once and signalled once. Run never performs the deep sleep
// or reset itself; it returns an Action for the process to execute.
package cycle
