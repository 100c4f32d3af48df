package scratch

func ScratchFunc() {}
