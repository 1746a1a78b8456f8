// Command distfs-client issues namespace and allocation RPCs against a
// running master (spec §6's Master <-> Client interface). File-splitting
// and chunk data transfer are out of this core's scope; this client only
// drives the metadata operations.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/transport"

	"github.com/spf13/cobra"
)

func main() {
	var masterAddr string

	rootCmd := &cobra.Command{
		Use:   "distfs-client",
		Short: "Issue namespace operations against a distfs master",
	}
	rootCmd.PersistentFlags().StringVar(&masterAddr, "master", "127.0.0.1:7777", "master address")

	rootCmd.AddCommand(
		newMkdirCmd(&masterAddr),
		newLsCmd(&masterAddr),
		newCreateCmd(&masterAddr),
		newRmCmd(&masterAddr),
		newAllocateCmd(&masterAddr),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func callMaster(masterAddr, rpcName string, args, reply interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return transport.Call(ctx, gfs.ServerAddress(masterAddr), rpcName, args, reply)
}

func newMkdirCmd(masterAddr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory, including missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply transport.MkdirReply
			return callMaster(*masterAddr, "MasterService.Mkdir", &transport.MkdirArgs{Path: args[0]}, &reply)
		},
	}
}

func newLsCmd(masterAddr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <path>",
		Short: "List a directory's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply transport.LsReply
			if err := callMaster(*masterAddr, "MasterService.Ls", &transport.LsArgs{Path: args[0]}, &reply); err != nil {
				return err
			}
			for _, name := range reply.Content {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newCreateCmd(masterAddr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <path>",
		Short: "Create a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply transport.CreateFileReply
			return callMaster(*masterAddr, "MasterService.CreateFile", &transport.CreateFileArgs{FilePath: args[0]}, &reply)
		},
	}
}

func newRmCmd(masterAddr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file (marks it Deleted; lazily reclaimed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply transport.DeleteFileReply
			return callMaster(*masterAddr, "MasterService.DeleteFile", &transport.DeleteFileArgs{FilePath: args[0]}, &reply)
		},
	}
}

func newAllocateCmd(masterAddr *string) *cobra.Command {
	var chunkIndex uint64
	cmd := &cobra.Command{
		Use:   "allocate <path>",
		Short: "Allocate a new chunk for a file and print its proposed locations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply transport.AllocateChunkReply
			req := &transport.AllocateChunkArgs{FilePath: args[0], ChunkIndex: chunkIndex}
			if err := callMaster(*masterAddr, "MasterService.AllocateChunk", req, &reply); err != nil {
				return err
			}
			meta := reply.ChunkMetadata
			fmt.Printf("handle=%d lease=%s\n", meta.ChunkHandle, meta.LeaseID)
			for _, loc := range meta.Locations {
				fmt.Printf("  %s primary=%v\n", loc.Address, loc.Primary)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&chunkIndex, "index", 0, "chunk index within the file")
	return cmd
}
