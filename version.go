package gleaner

// Version is the library version, stamped into CLI and API responses.
var Version = "0.1.0"
