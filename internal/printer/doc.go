// Package printer renders rumor slips on the thermal receipt printer.
//
// Slips are short bold line sequences with a fixed head gap and a
// per-slip tail feed, written over a serial port in ESC/POS commands with
// CP437 text encoding. A Manager owns the active output and swaps between
// the real serial port and a console stand-in as the USB device comes and
// goes; a HotplugMonitor watches udev tty events to drive those swaps.
package printer
