package snowflake

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// GeneratorType 区分不同业务域的 ID 序列
type GeneratorType int

const (
	GeneratorTypeAlert GeneratorType = iota
	GeneratorTypeSession
	GeneratorTypeMessage
	generatorCount
)

var (
	nodes [generatorCount]*snowflake.Node
	once  sync.Once

	errInvalidMachineID   = errors.New("invalid snowflake machine id")
	errGeneratorUninitial = errors.New("snowflake generator is not initialized")
	errUnknownGenerator   = errors.New("unknown snowflake generator type")
)

func Init(machineID, dataCenterID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 31 {
			initErr = errInvalidMachineID
			return
		}

		// datacenterID 和 machineID 都是 0~31，再按业务域散开
		base := (dataCenterID << 5) | machineID

		for i := range nodes {
			node, err := snowflake.NewNode((base + int64(i)) % 1024)
			if err != nil {
				initErr = err
				return
			}
			nodes[i] = node
		}
	})

	return initErr
}

func NextID(t GeneratorType) (int64, error) {
	if t < 0 || t >= generatorCount {
		return 0, errUnknownGenerator
	}
	if nodes[t] == nil {
		return 0, errGeneratorUninitial
	}

	return nodes[t].Generate().Int64(), nil
}
