// Package boot tries the configured boot methods in order and hands control
// to the first image that loads.
//
// Serial boot receives the image through the frame loader in package sfl.
// Every other method is a Driver returning an Image, either already in
// place (ROM, memory-mapped flash) or to be copied into the load region.
// Both paths end in the same handoff, which calls the Jumper once.
package boot
