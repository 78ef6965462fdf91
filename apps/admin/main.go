package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/syllabix/syllabix/core"
	logsvc "github.com/syllabix/syllabix/services/logger"
	"github.com/syllabix/syllabix/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	cli := newCommandLine(db)
	err = newRootCmd(cli).ExecuteContext(context.Background())
	_ = db.Close()
	logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		os.Exit(1)
	}
}
