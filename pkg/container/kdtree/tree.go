/*
 * Copyright 2020 Dennis Kuhnert
 * Copyright 2020 Ivanov Nikita
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */
package kdtree

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-sod/outlier/pkg/pqueue"
)

// Item is a point stored in the tree. Key identifies the item and breaks
// distance ties during nearest neighbour search.
type Item interface {
	Key() int
	Dim(idx int) float64
	Dimensions() int
	Points() []float64
}

// Result is one nearest neighbour found by KNN.
type Result struct {
	Item     Item
	Distance float64
}

func New(distFn func(vec, vec1 []float64) (float64, error)) *Tree {
	return &Tree{
		root:   nil,
		len:    0,
		distFn: distFn,
	}
}

// Tree is a kd-tree. Pruning assumes the distance function is bounded below
// by the absolute difference along any single axis.
type Tree struct {
	root   *node
	len    int
	distFn func(vec, vec1 []float64) (float64, error)
}

func (t *Tree) Build(points ...Item) {
	t.len = len(points)
	items := append([]Item(nil), points...)
	t.root = buildTreeRecursive(items, 0)
}

func (t *Tree) Len() int {
	return t.len
}

// KNN returns the k items closest to p ordered by ascending distance, ties by
// ascending Key. The result is identical to an exhaustive scan.
func (t *Tree) KNN(p Item, k int) ([]Result, error) {
	if t.root == nil || k <= 0 {
		return []Result{}, fmt.Errorf("root is nil or K is 0")
	}

	queue := pqueue.New(pqueue.WithCap(uint(k)))

	if err := t.knn(p, k, t.root, 0, queue); err != nil {
		return []Result{}, err
	}

	results := make([]Result, 0, queue.Len())
	for i := 0; i < queue.Len(); i++ {
		n, distance := queue.Seek(i)
		results = append(results, Result{Item: n.(*node).Key, Distance: distance})
	}

	return results, nil
}

func (t *Tree) knn(p Item, k int, first *node, dim int, queue *pqueue.Queue) error {
	if k == 0 || first == nil {
		return nil
	}

	var path []*node
	currentNode := first

	for currentNode != nil {
		path = append(path, currentNode)
		if p.Dim(dim) < currentNode.Key.Dim(dim) {
			currentNode = currentNode.Left
		} else {
			currentNode = currentNode.Right
		}
		dim = (dim + 1) % p.Dimensions()
	}

	dim = (dim - 1 + p.Dimensions()) % p.Dimensions()
	for path, currentNode = popLast(path); currentNode != nil; path, currentNode = popLast(path) {
		currentDistance, err := t.distFn(p.Points(), currentNode.Key.Points())
		if err != nil {
			return fmt.Errorf("compute knn error: %w", err)
		}
		queue.Push(currentNode, currentDistance, currentNode.Key.Key())

		// ties on the far side may still win on Key, so equality keeps searching
		if distanceForDimension(p, currentNode.Key, dim) <= getKthOrLastDistance(queue, k-1) {
			var next *node
			if p.Dim(dim) < currentNode.Key.Dim(dim) {
				next = currentNode.Right
			} else {
				next = currentNode.Left
			}
			if err := t.knn(p, k, next, (dim+1)%p.Dimensions(), queue); err != nil {
				return err
			}
		}
		dim = (dim - 1 + p.Dimensions()) % p.Dimensions()
	}
	return nil
}

type sortPoints struct {
	dim    int
	points []Item
}

func (b *sortPoints) Len() int {
	return len(b.points)
}

func (b *sortPoints) Less(i, j int) bool {
	if b.points[i].Dim(b.dim) != b.points[j].Dim(b.dim) {
		return b.points[i].Dim(b.dim) < b.points[j].Dim(b.dim)
	}
	return b.points[i].Key() < b.points[j].Key()
}

func (b *sortPoints) Swap(i, j int) {
	b.points[i], b.points[j] = b.points[j], b.points[i]
}

func buildTreeRecursive(points []Item, dim int) *node {
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		return &node{Key: points[0]}
	}

	sort.Sort(&sortPoints{dim: dim, points: points})
	mid := len(points) / 2
	// equal coordinates must all land right of the split
	for mid > 0 && points[mid-1].Dim(dim) == points[mid].Dim(dim) {
		mid--
	}
	root := points[mid]
	nextDim := (dim + 1) % root.Dimensions()
	return &node{
		Key:   root,
		Left:  buildTreeRecursive(points[:mid], nextDim),
		Right: buildTreeRecursive(points[mid+1:], nextDim),
	}
}

func distanceForDimension(vec, vec1 Item, dim int) float64 {
	return math.Abs(vec1.Dim(dim) - vec.Dim(dim))
}

func popLast(arr []*node) ([]*node, *node) {
	l := len(arr) - 1
	if l < 0 {
		return arr, nil
	}
	return arr[:l], arr[l]
}

func getKthOrLastDistance(queue *pqueue.Queue, i int) float64 {
	if queue.Len() <= i {
		return math.Inf(1)
	}
	_, distance := queue.Seek(i)
	return distance
}
