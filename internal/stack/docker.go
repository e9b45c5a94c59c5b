package stack

import (
	"context"
	"io"
	"strings"
)

// Service is one row of `docker stack services`.
type Service struct {
	Name     string
	Mode     string
	Replicas string
	Image    string
	Ports    string
}

// Docker issues swarm commands through a Runner.
type Docker struct {
	runner Runner
	bin    string
}

// NewDocker creates a Docker client. An empty bin means "docker".
func NewDocker(r Runner, bin string) *Docker {
	if bin == "" {
		bin = "docker"
	}
	return &Docker{runner: r, bin: bin}
}

// StackDeploy deploys composeFile as the named stack.
func (d *Docker) StackDeploy(ctx context.Context, composeFile, stack string) error {
	_, err := d.runner.Run(ctx, d.bin, "stack", "deploy", "-c", composeFile, stack)
	return err
}

// StackRemove removes the named stack.
func (d *Docker) StackRemove(ctx context.Context, stack string) error {
	_, err := d.runner.Run(ctx, d.bin, "stack", "rm", stack)
	return err
}

// StackServices lists the services of the named stack.
func (d *Docker) StackServices(ctx context.Context, stack string) ([]Service, error) {
	out, err := d.runner.Run(ctx, d.bin, "stack", "services", stack,
		"--format", "{{.Name}}\t{{.Mode}}\t{{.Replicas}}\t{{.Image}}\t{{.Ports}}")
	if err != nil {
		return nil, err
	}
	return parseServices(string(out)), nil
}

func parseServices(out string) []Service {
	var services []Service
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for len(fields) < 5 {
			fields = append(fields, "")
		}
		services = append(services, Service{
			Name:     fields[0],
			Mode:     fields[1],
			Replicas: fields[2],
			Image:    fields[3],
			Ports:    fields[4],
		})
	}
	return services
}

// ServiceLogs follows the log output of a service.
func (d *Docker) ServiceLogs(ctx context.Context, service string) (io.ReadCloser, error) {
	return d.runner.Stream(ctx, d.bin, "service", "logs", "--follow", "--raw", service)
}

// ServiceName returns the swarm name of a stack service. Names that already
// carry the stack prefix are returned unchanged.
func ServiceName(stack, service string) string {
	if strings.HasPrefix(service, stack+"_") {
		return service
	}
	return stack + "_" + service
}
