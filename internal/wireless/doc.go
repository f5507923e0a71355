// Package wireless joins the node to a Wi-Fi network.
//
// Joiner drives a Station through activation and association and then polls
// its status at a fixed cadence, for a bounded number of attempts. A station
// that is already associated is returned as-is. Any status other than
// "connecting" or "got IP" ends the join immediately with a rejected
// JoinError; running out of attempts yields a timeout JoinError.
//
// Supplicant is the Linux Station, speaking the wpa_supplicant control
// protocol over its unixgram socket.
package wireless
