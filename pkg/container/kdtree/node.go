package kdtree

type node struct {
	Key   Item
	Left  *node
	Right *node
}
