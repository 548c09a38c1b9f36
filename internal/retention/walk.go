package retention

// Visit is called once per node reached by Walk. Returning descend=false
// skips the node's children.
type Visit func(id string) (descend bool, err error)

// Walk visits root and its descendants breadth first using an explicit
// worklist. The first error stops the walk.
func Walk(root string, children func(id string) ([]string, error), visit Visit) error {
	queue := []string{root}
	seen := map[string]bool{root: true}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		descend, err := visit(id)
		if err != nil {
			return err
		}
		if !descend {
			continue
		}
		kids, err := children(id)
		if err != nil {
			return err
		}
		for _, k := range kids {
			if seen[k] {
				continue
			}
			seen[k] = true
			queue = append(queue, k)
		}
	}
	return nil
}
