package nested

func NestedFunc() {}
