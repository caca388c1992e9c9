package directcomparison

type Config struct{}
