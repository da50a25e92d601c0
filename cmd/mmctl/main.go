// Command mmctl replays allocation traces against the first-fit allocator
// and inspects saved heap images.
package main

func main() {
	execute()
}
